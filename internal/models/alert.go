// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package models

import (
	"strings"
	"time"
)

// Severity of an alert. Ordered low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank returns the position of s in the severity order, or -1 when unknown.
func (s Severity) Rank() int {
	for i, v := range Severities {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// ParseSeverity normalizes a detector-supplied level ("HIGH", " Medium ").
// Unknown or empty values fall back to def.
func ParseSeverity(level string, def Severity) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(level)))
	if s.Valid() {
		return s
	}
	return def
}

// Status is the triage state of an alert.
type Status string

const (
	StatusOpen         Status = "open"
	StatusClosed       Status = "closed"
	StatusAcknowledged Status = "acknowledged"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusAcknowledged:
		return true
	}
	return false
}

// DetectionMethod labels the collaborator that produced an alert.
// The set is open: the store and hub never validate membership.
type DetectionMethod string

const (
	MethodSignature         DetectionMethod = "signature"
	MethodFileAnalysis      DetectionMethod = "file_analysis"
	MethodBehavioral        DetectionMethod = "behavioral"
	MethodEncrypted         DetectionMethod = "encrypted"
	MethodSocialEngineering DetectionMethod = "social_engineering"
	MethodEnsemble          DetectionMethod = "ensemble"
	MethodAdvanced          DetectionMethod = "advanced"
	MethodTrainedModel      DetectionMethod = "trained_model"
	MethodMLModel           DetectionMethod = "ml_model"
	MethodTest              DetectionMethod = "test"
)

// DetectionMethods lists every method with a detection route.
var DetectionMethods = []DetectionMethod{
	MethodSignature, MethodFileAnalysis, MethodBehavioral, MethodEncrypted,
	MethodSocialEngineering, MethodEnsemble, MethodAdvanced, MethodTrainedModel,
	MethodMLModel, MethodTest,
}

// Known reports whether m is one of DetectionMethods.
func (m DetectionMethod) Known() bool {
	for _, v := range DetectionMethods {
		if v == m {
			return true
		}
	}
	return false
}

// DefaultDeviceID is used when an alert arrives without an origin.
const DefaultDeviceID = "unknown"

// Alert is the canonical stored record of a detected threat.
type Alert struct {
	ID              string          `json:"id"`
	ThreatType      string          `json:"threat_type"`
	Severity        Severity        `json:"severity"`
	Timestamp       time.Time       `json:"timestamp"`
	Status          Status          `json:"status"`
	DeviceID        string          `json:"device_id"`
	Description     string          `json:"description"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	Confidence      float64         `json:"confidence"`
	Metrics         map[string]any  `json:"metrics,omitempty"`
}

// AlertFilter selects alerts by equality. Zero-valued fields match anything.
type AlertFilter struct {
	Severity        Severity
	Status          Status
	DetectionMethod DetectionMethod
}

// Matches reports whether a satisfies every non-empty field of f.
func (f AlertFilter) Matches(a *Alert) bool {
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.DetectionMethod != "" && a.DetectionMethod != f.DetectionMethod {
		return false
	}
	return true
}

// IsZero reports whether the filter matches everything.
func (f AlertFilter) IsZero() bool {
	return f == AlertFilter{}
}
