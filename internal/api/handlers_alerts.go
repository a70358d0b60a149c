// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
	"github.com/tomtom215/threathub/internal/query"
)

// Alerts lists alerts newest first with optional severity, status and
// detection_method filters.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := query.NewListRequest()
	var err error
	if req.Limit, err = intParam(r, "limit", req.Limit); err != nil {
		respondParamError(rw, err)
		return
	}
	if req.Offset, err = intParam(r, "offset", req.Offset); err != nil {
		respondParamError(rw, err)
		return
	}
	q := r.URL.Query()
	req.Severity = q.Get("severity")
	req.Status = q.Get("status")
	req.DetectionMethod = q.Get("detection_method")

	page, err := h.queries.ListAlerts(req)
	if err != nil {
		respondError(rw, r, err)
		return
	}

	rw.SuccessWithPagination(page.Alerts, &PaginationMeta{
		Total:   page.Total,
		Count:   len(page.Alerts),
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: page.Offset+len(page.Alerts) < page.Total,
	})
}

// LegacyAlerts returns the newest alerts as a bare array.
func (h *Handler) LegacyAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.queries.Legacy())
}

// Alert returns one alert by id.
func (h *Handler) Alert(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	alert, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(alert)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateAlertStatus changes one alert's triage status.
func (h *Handler) UpdateAlertStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	var body statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return
	}
	if body.Status == "" {
		rw.ValidationError("status is required", map[string]interface{}{"field": "status"})
		return
	}

	updated, err := h.store.UpdateStatus(id, models.Status(body.Status))
	if err != nil {
		respondError(rw, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("alert_id", updated.ID).
		Str("status", string(updated.Status)).
		Msg("Alert status updated")
	rw.Success(updated)
}
