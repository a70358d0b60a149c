// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package metrics registers the Prometheus collectors for ThreatHub.
//
// Collectors are package-level promauto variables registered against the
// default registry and exposed by the API on /metrics. Packages record
// through the Record* helpers so label sets stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Live channel metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of registered live-channel subscribers",
		},
	)

	WSConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total number of accepted live-channel connections",
		},
	)

	WSDisconnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_disconnections_total",
			Help: "Total number of live-channel subscribers removed",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_broadcasts_total",
			Help: "Total number of broadcast calls",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of inbound live-channel messages",
		},
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Inbound live-channel messages ignored",
		},
		[]string{"reason"}, // malformed, rate_limited, unknown_type
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of live-channel errors",
		},
		[]string{"error_type"}, // handshake, send
	)

	WSBroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_broadcast_duration_seconds",
			Help:    "Time to fan one message out to every subscriber",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// Store metrics
	StoreAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_alerts",
			Help: "Number of alerts in the ledger",
		},
	)

	StoreHistorySize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_history_size",
			Help: "Number of entries in a bounded history",
		},
		[]string{"kind"}, // alerts, detections
	)

	// Ingestion metrics
	DetectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_requests_total",
			Help: "Detection submissions by method and outcome",
		},
		[]string{"method", "outcome"}, // outcome: alert, clean, unavailable, failure
	)

	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detection_duration_seconds",
			Help:    "Collaborator call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Alerts stored by detection method and severity",
		},
		[]string{"method", "severity"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event bus metrics
	EventBusPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbus_published_total",
			Help: "Alerts published to the event bus",
		},
	)

	EventBusPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbus_publish_errors_total",
			Help: "Failed event bus publishes",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBroadcast records one fan-out pass.
func RecordBroadcast(duration time.Duration, failures int) {
	WSMessagesSent.Inc()
	WSBroadcastDuration.Observe(duration.Seconds())
	if failures > 0 {
		WSErrors.WithLabelValues("send").Add(float64(failures))
	}
}

// RecordDetection records a collaborator call and its outcome.
func RecordDetection(method, outcome string, duration time.Duration) {
	DetectionRequests.WithLabelValues(method, outcome).Inc()
	if duration > 0 {
		DetectionDuration.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// RecordAlertCreated counts a stored alert.
func RecordAlertCreated(method, severity string) {
	AlertsCreated.WithLabelValues(method, severity).Inc()
}

// UpdateStoreGauges publishes current store sizes.
func UpdateStoreGauges(alerts, alertHistory, detectionHistory int) {
	StoreAlerts.Set(float64(alerts))
	StoreHistorySize.WithLabelValues("alerts").Set(float64(alertHistory))
	StoreHistorySize.WithLabelValues("detections").Set(float64(detectionHistory))
}

// RecordEventBusPublish counts a publish attempt.
func RecordEventBusPublish(err error) {
	if err != nil {
		EventBusPublishErrors.Inc()
		return
	}
	EventBusPublished.Inc()
}
