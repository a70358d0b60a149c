// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package dashboard computes summary counts and the security score over the
// alert ledger.
package dashboard

import (
	"github.com/tomtom215/threathub/internal/models"
)

// severityWeights is the open-alert load contributed by each severity.
var severityWeights = map[models.Severity]int{
	models.SeverityLow:      1,
	models.SeverityMedium:   3,
	models.SeverityHigh:     5,
	models.SeverityCritical: 10,
}

// Weight returns the score weight of s; unknown severities weigh nothing.
func Weight(s models.Severity) int {
	return severityWeights[s]
}

// SecurityScore maps open-alert counts per severity to 0..100.
// score = max(0, 100 - min(2*Σ count(s)*weight(s), 100))
func SecurityScore(openBySeverity map[models.Severity]int) int {
	weighted := 0
	for s, n := range openBySeverity {
		weighted += n * Weight(s)
	}
	return max(0, 100-min(weighted*2, 100))
}

// Summarize scans alerts without mutating them. modules is passed through
// as the collaborator availability map.
func Summarize(alerts []models.Alert, modules map[string]string) models.DashboardSummary {
	summary := models.DashboardSummary{
		TotalAlerts:      len(alerts),
		DetectionMethods: make(map[string]int),
		ThreatTypes:      make(map[string]int),
		EnhancedModules:  modules,
	}
	if summary.EnhancedModules == nil {
		summary.EnhancedModules = map[string]string{}
	}

	openBySeverity := make(map[models.Severity]int, len(severityWeights))
	for i := range alerts {
		a := &alerts[i]
		summary.DetectionMethods[string(a.DetectionMethod)]++
		summary.ThreatTypes[a.ThreatType]++

		if a.Status != models.StatusOpen {
			continue
		}
		summary.OpenAlerts++
		openBySeverity[a.Severity]++
		if a.Severity == models.SeverityCritical {
			summary.CriticalAlerts++
		}
	}
	summary.SecurityScore = SecurityScore(openBySeverity)
	return summary
}

// AlertSource is the read side of the alert store.
type AlertSource interface {
	Snapshot() []models.Alert
}

// ModuleSource reports collaborator availability.
type ModuleSource interface {
	ModuleStatus() map[string]string
}

// Aggregator binds Summarize to live sources.
type Aggregator struct {
	alerts  AlertSource
	modules ModuleSource
}

// NewAggregator creates an Aggregator. modules may be nil.
func NewAggregator(alerts AlertSource, modules ModuleSource) *Aggregator {
	return &Aggregator{alerts: alerts, modules: modules}
}

// Summary computes the dashboard summary from a fresh ledger snapshot.
func (a *Aggregator) Summary() models.DashboardSummary {
	var modules map[string]string
	if a.modules != nil {
		modules = a.modules.ModuleStatus()
	}
	return Summarize(a.alerts.Snapshot(), modules)
}
