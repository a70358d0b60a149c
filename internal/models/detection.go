// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package models

import "time"

// Threat is one finding inside a detection result.
type Threat struct {
	Type        string         `json:"type"`
	Severity    string         `json:"severity,omitempty"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description,omitempty"`
	Indicators  map[string]any `json:"indicators,omitempty"`
}

// DetectionResult is the normalized output of one collaborator call.
// It is kept in the detection history whether or not it produced alerts.
type DetectionResult struct {
	DetectionMethod  DetectionMethod `json:"detection_method"`
	Timestamp        time.Time       `json:"timestamp"`
	IsThreat         bool            `json:"is_threat"`
	ThreatsDetected  []Threat        `json:"threats_detected"`
	ThreatLevel      string          `json:"threat_level"`
	ThreatType       string          `json:"threat_type,omitempty"`
	Severity         string          `json:"severity,omitempty"`
	Confidence       float64         `json:"confidence"`
	OverallRiskScore float64         `json:"overall_risk_score"`
	Prediction       string          `json:"prediction,omitempty"`
	ThreatTypes      []string        `json:"threat_types,omitempty"`
	Details          map[string]any  `json:"details,omitempty"`
	TopFeatures      []any           `json:"top_features,omitempty"`
}

// Detected reports whether the collaborator flagged anything at all.
func (r *DetectionResult) Detected() bool {
	return r.IsThreat || len(r.ThreatsDetected) > 0
}

// AllThreatTypes returns ThreatTypes, or the distinct types of
// ThreatsDetected when the collaborator did not list them.
func (r *DetectionResult) AllThreatTypes() []string {
	if len(r.ThreatTypes) > 0 {
		return r.ThreatTypes
	}
	seen := make(map[string]struct{}, len(r.ThreatsDetected))
	types := make([]string, 0, len(r.ThreatsDetected))
	for _, t := range r.ThreatsDetected {
		if t.Type == "" {
			continue
		}
		if _, ok := seen[t.Type]; ok {
			continue
		}
		seen[t.Type] = struct{}{}
		types = append(types, t.Type)
	}
	return types
}
