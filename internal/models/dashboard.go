// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package models

// Module availability labels reported by the detector gateway.
const (
	ModuleActive   = "active"
	ModuleInactive = "inactive"
)

// DashboardSummary is the aggregate view served to dashboards and pushed
// in the initial live-channel envelope.
type DashboardSummary struct {
	TotalAlerts      int               `json:"total_alerts"`
	OpenAlerts       int               `json:"open_alerts"`
	CriticalAlerts   int               `json:"critical_alerts"`
	SecurityScore    int               `json:"security_score"`
	DetectionMethods map[string]int    `json:"detection_methods"`
	ThreatTypes      map[string]int    `json:"threat_types"`
	EnhancedModules  map[string]string `json:"enhanced_modules"`
}

// HubStats are the process-lifetime live-channel counters.
type HubStats struct {
	TotalConnections    int64 `json:"total_connections"`
	TotalDisconnections int64 `json:"total_disconnections"`
	MessagesSent        int64 `json:"messages_sent"`
	Errors              int64 `json:"errors"`
}

// DetectionStats is served on the detection statistics endpoint.
type DetectionStats struct {
	TotalDetections   int                `json:"total_detections"`
	ActiveConnections int                `json:"active_connections"`
	ConnectionStats   HubStats           `json:"connection_stats"`
	DetectionWeights  map[string]float64 `json:"detection_weights"`
}
