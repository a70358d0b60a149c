// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/threathub/internal/middleware"
	"github.com/tomtom215/threathub/internal/models"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil mw derives middleware from the
// handler's security configuration.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(ChiMiddlewareConfigFrom(handler.config.Security))
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// detectionRoutes maps POST routes to detection methods.
var detectionRoutes = []struct {
	path   string
	method models.DetectionMethod
}{
	{"/enhanced/detect", models.MethodEnsemble},
	{"/enhanced/advanced-detect", models.MethodAdvanced},
	{"/signature/detect", models.MethodSignature},
	{"/file/analyze", models.MethodFileAnalysis},
	{"/behavioral/analyze", models.MethodBehavioral},
	{"/encrypted/detect", models.MethodEncrypted},
	{"/social-engineering/detect", models.MethodSocialEngineering},
	{"/trained-models/windows10-detect", models.MethodTrainedModel},
	{"/trained-models/ml-detect", models.MethodMLModel},
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	// ========================
	// Operational Endpoints
	// ========================
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Live Channel
	// ========================
	r.Get("/ws", h.WebSocket)

	// ========================
	// Legacy Root Routes
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("legacy"))
		r.Get("/alerts", h.LegacyAlerts)
		r.With(middleware.MaxBody(h.config.Security.MaxBodyBytes)).Post("/test-alert", h.TestAlert)
	})

	// ========================
	// Detection Endpoints
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(APISecurityHeaders())

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBody(h.config.Security.MaxBodyBytes))
			for _, route := range detectionRoutes {
				r.Post(route.path, h.Detect(route.method))
			}
			r.Patch("/alerts/{id}/status", h.UpdateAlertStatus)
		})

		// ========================
		// Read Endpoints
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Compress(5, "application/json"))
			r.Get("/alerts", h.Alerts)
			r.Get("/alerts/{id}", h.Alert)
			r.Get("/dashboard/summary", h.DashboardSummary)
			r.Get("/detection/history", h.DetectionHistory)
			r.Get("/detection/stats", h.DetectionStats)
			r.Get("/detection-stats", h.DetectionStats)
			r.Get("/module-status", h.ModuleStatus)
			r.Get("/trained-models/status", h.TrainedModelsStatus)
			r.Get("/connections", h.Connections)
		})
	})

	return r
}
