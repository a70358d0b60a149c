// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/threathub/internal/models"
	"github.com/tomtom215/threathub/internal/query"
	"github.com/tomtom215/threathub/internal/store"
)

// serviceName is reported by the root route.
const serviceName = "ThreatHub - Real-time Security Alert Hub"

// DashboardSummary returns the aggregated security posture.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.aggregator.Summary())
}

// DetectionHistory returns the newest detection results, oldest first.
// kind=alerts reads the alert history instead.
func (h *Handler) DetectionHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := query.NewHistoryRequest()
	var err error
	if req.Limit, err = intParam(r, "limit", req.Limit); err != nil {
		respondParamError(rw, err)
		return
	}
	req.Kind = r.URL.Query().Get("kind")

	var history interface{}
	if req.Kind == query.HistoryAlerts {
		history, err = h.queries.AlertHistory(req)
	} else {
		history, err = h.queries.DetectionHistory(req)
	}
	if err != nil {
		respondError(rw, r, err)
		return
	}
	rw.Success(history)
}

// Connections lists live subscribers in connection order.
func (h *Handler) Connections(w http.ResponseWriter, r *http.Request) {
	conns := h.hub.Connections()
	NewResponseWriter(w, r).SuccessWithPagination(conns, &PaginationMeta{
		Total: len(conns),
		Count: len(conns),
		Limit: len(conns),
	})
}

// DetectionStats reports history size, live connections and weights.
func (h *Handler) DetectionStats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(models.DetectionStats{
		TotalDetections:   h.store.Stats().DetectionHistory,
		ActiveConnections: h.hub.GetClientCount(),
		ConnectionStats:   h.hub.Stats(),
		DetectionWeights:  h.gateway.Weights(),
	})
}

// ModuleStatusResponse lists dashboard modules as active or inactive.
type ModuleStatusResponse struct {
	Modules   map[string]string `json:"modules"`
	Methods   []string          `json:"methods"`
	Timestamp time.Time         `json:"timestamp"`
}

// ModuleStatus reports which detection collaborators are bound.
func (h *Handler) ModuleStatus(w http.ResponseWriter, r *http.Request) {
	methods := h.gateway.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	NewResponseWriter(w, r).Success(ModuleStatusResponse{
		Modules:   h.gateway.ModuleStatus(),
		Methods:   names,
		Timestamp: time.Now().UTC(),
	})
}

// TrainedModelsStatus reports trained-model and ensemble availability.
func (h *Handler) TrainedModelsStatus(w http.ResponseWriter, r *http.Request) {
	status := h.gateway.TrainedModelStatus()
	data := make(map[string]interface{}, len(status)+1)
	for k, v := range status {
		data[k] = v
	}
	data["timestamp"] = time.Now().UTC()
	NewResponseWriter(w, r).Success(data)
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status            string      `json:"status"`
	Timestamp         time.Time   `json:"timestamp"`
	Version           string      `json:"version"`
	UptimeSeconds     int64       `json:"uptime_seconds"`
	ActiveConnections int         `json:"active_connections"`
	RecentAlerts      int64       `json:"recent_alerts"`
	RecentWindow      string      `json:"recent_alerts_window"`
	Store             store.Stats `json:"store"`
}

// Health reports liveness plus a few cheap counters.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	recent, window := h.orch.RecentAlertRate()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "healthy",
		Timestamp:         time.Now().UTC(),
		Version:           h.config.Server.Version,
		UptimeSeconds:     int64(time.Since(h.startTime).Seconds()),
		ActiveConnections: h.hub.GetClientCount(),
		RecentAlerts:      recent,
		RecentWindow:      window.String(),
		Store:             h.store.Stats(),
	})
}

// Root identifies the service.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"version": h.config.Server.Version,
	})
}
