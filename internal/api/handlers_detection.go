// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/threathub/internal/detection"
	"github.com/tomtom215/threathub/internal/models"
	"github.com/tomtom215/threathub/internal/validation"
)

// DetectionResponse is the data of every detection route.
type DetectionResponse struct {
	Method         models.DetectionMethod  `json:"method"`
	Result         *models.DetectionResult `json:"result"`
	ThreatDetected bool                    `json:"threat_detected"`
	ThreatCount    int                     `json:"threats_detected"`
	AlertIDs       []string                `json:"alert_ids"`
	Alerts         []models.Alert          `json:"alerts"`
}

// Detect returns the handler for one detection method. The body is the
// detection request bag; an empty body is an empty bag.
func (h *Handler) Detect(method models.DetectionMethod) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w, r)

		req, err := decodeDetectionRequest(r)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(rw, r, err)
				return
			}
			rw.BadRequest("invalid JSON body: " + err.Error())
			return
		}
		if verr := validation.ValidateStruct(req); verr != nil {
			respondValidation(rw, verr)
			return
		}

		outcome, err := h.orch.Submit(r.Context(), method, req)
		if err != nil {
			respondError(rw, r, err)
			return
		}

		ids := make([]string, len(outcome.Alerts))
		for i := range outcome.Alerts {
			ids[i] = outcome.Alerts[i].ID
		}
		rw.Success(DetectionResponse{
			Method:         method,
			Result:         outcome.Result,
			ThreatDetected: outcome.ThreatDetected(),
			ThreatCount:    len(outcome.Result.ThreatsDetected),
			AlertIDs:       ids,
			Alerts:         outcome.Alerts,
		})
	}
}

func decodeDetectionRequest(r *http.Request) (*detection.Request, error) {
	req := &detection.Request{}
	if r.Body == nil {
		return req, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, err
	}
	return req, nil
}

// testAlertResponse keeps the shape of the legacy root route.
type testAlertResponse struct {
	Status string       `json:"status"`
	Alert  models.Alert `json:"alert"`
}

// TestAlert creates one synthetic alert and broadcasts it.
func (h *Handler) TestAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.orch.CreateTestAlert(r.Context())
	if err != nil {
		respondError(NewResponseWriter(w, r), r, err)
		return
	}
	writeJSON(w, http.StatusOK, testAlertResponse{Status: "success", Alert: alert})
}
