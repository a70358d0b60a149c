// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/threathub/internal/config"
	"github.com/tomtom215/threathub/internal/dashboard"
	"github.com/tomtom215/threathub/internal/detection"
	"github.com/tomtom215/threathub/internal/ingest"
	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/query"
	"github.com/tomtom215/threathub/internal/store"
	ws "github.com/tomtom215/threathub/internal/websocket"
)

// Dependencies are the components the handlers serve.
type Dependencies struct {
	Config       *config.Config
	Orchestrator *ingest.Orchestrator
	Queries      *query.Service
	Store        *store.Store
	Aggregator   *dashboard.Aggregator
	Gateway      *detection.Gateway
	Hub          *ws.Hub
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, shared helpers
//   - handlers_detection.go: detection submissions and the test alert
//   - handlers_alerts.go: alert lists and status updates
//   - handlers_status.go: dashboard, history, statistics, health
//   - handlers_ws.go: live channel upgrade
type Handler struct {
	config     *config.Config
	orch       *ingest.Orchestrator
	queries    *query.Service
	store      *store.Store
	aggregator *dashboard.Aggregator
	gateway    *detection.Gateway
	hub        *ws.Hub
	startTime  time.Time
}

// NewHandler creates a handler over deps. A nil Config uses defaults.
func NewHandler(deps Dependencies) *Handler {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Handler{
		config:     cfg,
		orch:       deps.Orchestrator,
		queries:    deps.Queries,
		store:      deps.Store,
		aggregator: deps.Aggregator,
		gateway:    deps.Gateway,
		hub:        deps.Hub,
		startTime:  time.Now(),
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin allows configured origins. A missing Origin header
// is only accepted under a wildcard, since browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" {
			return true
		}
		if origin != "" && allowed == origin {
			return true
		}
	}

	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
	} else {
		logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	}
	return false
}

// intParam parses an optional integer query parameter. A present but
// malformed value is an error, never silently replaced by the default.
func intParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &paramError{Param: key, Value: value}
	}
	return n, nil
}

type paramError struct {
	Param string
	Value string
}

func (e *paramError) Error() string {
	return "query parameter " + e.Param + " must be an integer"
}

func (e *paramError) details() map[string]interface{} {
	return map[string]interface{}{"field": e.Param, "value": e.Value}
}

func respondParamError(rw *ResponseWriter, err error) {
	var pe *paramError
	if errors.As(err, &pe) {
		rw.ValidationError(pe.Error(), pe.details())
		return
	}
	rw.BadRequest(err.Error())
}
