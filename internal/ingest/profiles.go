// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package ingest

import (
	"fmt"
	"strings"

	"github.com/tomtom215/threathub/internal/detection"
	"github.com/tomtom215/threathub/internal/models"
)

// alertBuilder turns a normalized result into zero or more alerts. Ids,
// timestamps and status are left for the store to assign.
type alertBuilder func(r *models.DetectionResult, req *detection.Request) []models.Alert

// profiles maps each known detection method to its alert shape. Methods
// without a profile fall back to genericAlerts.
var profiles = map[models.DetectionMethod]alertBuilder{
	models.MethodEnsemble:          ensembleAlerts,
	models.MethodAdvanced:          advancedAlerts,
	models.MethodSignature:         signatureAlerts,
	models.MethodFileAnalysis:      fileAnalysisAlerts,
	models.MethodBehavioral:        riskAlerts("behavioral-analyzer", "Behavioral Anomaly", "Behavioral anomaly detected"),
	models.MethodEncrypted:         riskAlerts("encrypted-detector", "Encrypted Threat", "Encrypted threat detected"),
	models.MethodSocialEngineering: riskAlerts("social-engineering-detector", "Social Engineering", "Social engineering detected"),
	models.MethodTrainedModel:      trainedModelAlerts,
	models.MethodMLModel:           mlModelAlerts,
	models.MethodTest:              testAlerts,
}

func builderFor(method models.DetectionMethod) alertBuilder {
	if b, ok := profiles[method]; ok {
		return b
	}
	return genericAlerts
}

// bySeverityThreshold is high above 0.8 confidence, medium otherwise.
func bySeverityThreshold(confidence float64) models.Severity {
	if confidence > 0.8 {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func threatSummary(r *models.DetectionResult) map[string]any {
	types := r.AllThreatTypes()
	if types == nil {
		types = []string{}
	}
	return map[string]any{
		"threat_count": len(r.ThreatsDetected),
		"threat_types": types,
	}
}

func ensembleAlerts(r *models.DetectionResult, _ *detection.Request) []models.Alert {
	if len(r.ThreatsDetected) == 0 {
		return nil
	}
	m := threatSummary(r)
	m["overall_risk_score"] = r.OverallRiskScore
	return []models.Alert{{
		ThreatType:  "Enhanced Threat Detection",
		Severity:    models.ParseSeverity(r.ThreatLevel, models.SeverityMedium),
		DeviceID:    "enhanced-detector",
		Description: fmt.Sprintf("Enhanced threat detection found %d threats", len(r.ThreatsDetected)),
		Confidence:  r.Confidence,
		Metrics:     m,
	}}
}

func advancedAlerts(r *models.DetectionResult, _ *detection.Request) []models.Alert {
	out := make([]models.Alert, 0, len(r.ThreatsDetected))
	for _, t := range r.ThreatsDetected {
		typ := orDefault(t.Type, "Advanced Threat")
		out = append(out, models.Alert{
			ThreatType:  typ,
			Severity:    models.SeverityHigh,
			DeviceID:    "advanced-detector",
			Description: "Advanced threat detected: " + typ,
			Confidence:  t.Confidence,
			Metrics:     t.Indicators,
		})
	}
	return out
}

func signatureAlerts(r *models.DetectionResult, _ *detection.Request) []models.Alert {
	if !r.Detected() {
		return nil
	}
	typ := orDefault(r.ThreatType, "Signature Match")
	return []models.Alert{{
		ThreatType:  typ,
		Severity:    bySeverityThreshold(r.Confidence),
		DeviceID:    "signature-detector",
		Description: "Signature-based threat detected: " + typ,
		Confidence:  r.Confidence,
		Metrics:     r.Details,
	}}
}

func fileAnalysisAlerts(r *models.DetectionResult, _ *detection.Request) []models.Alert {
	if !strings.EqualFold(r.Prediction, "malicious") {
		return nil
	}
	typ := orDefault(r.ThreatType, "File-based Malware")
	return []models.Alert{{
		ThreatType:  typ,
		Severity:    bySeverityThreshold(r.Confidence),
		DeviceID:    "file-analyzer",
		Description: "File-based malware detected: " + typ,
		Confidence:  r.Confidence,
		Metrics:     r.Details,
	}}
}

// riskAlerts builds the profile shared by the analyzers that score risk on a
// 0-10 scale: one alert when any threat is found, confidence = risk/10.
func riskAlerts(device, threatType, prefix string) alertBuilder {
	return func(r *models.DetectionResult, _ *detection.Request) []models.Alert {
		if len(r.ThreatsDetected) == 0 {
			return nil
		}
		return []models.Alert{{
			ThreatType:  threatType,
			Severity:    models.ParseSeverity(r.ThreatLevel, models.SeverityMedium),
			DeviceID:    device,
			Description: fmt.Sprintf("%s: %s risk", prefix, r.ThreatLevel),
			Confidence:  r.OverallRiskScore / 10,
			Metrics:     threatSummary(r),
		}}
	}
}

func trainedModelAlerts(r *models.DetectionResult, req *detection.Request) []models.Alert {
	if !r.IsThreat {
		return nil
	}
	topFeatures := r.TopFeatures
	if topFeatures == nil {
		topFeatures = []any{}
	}
	return []models.Alert{{
		ThreatType:  orDefault(r.ThreatType, "Windows10 System Threat"),
		Severity:    bySeverityThreshold(r.Confidence),
		DeviceID:    req.DeviceID,
		Description: fmt.Sprintf("Windows10 threat detected with confidence %.2f", r.Confidence),
		Confidence:  r.Confidence,
		Metrics: map[string]any{
			"prediction":   r.Prediction,
			"top_features": topFeatures,
		},
	}}
}

func mlModelAlerts(r *models.DetectionResult, req *detection.Request) []models.Alert {
	if !r.IsThreat {
		return nil
	}
	typ := orDefault(r.ThreatType, "Network Threat")
	return []models.Alert{{
		ThreatType:  typ,
		Severity:    models.ParseSeverity(orDefault(r.Severity, r.ThreatLevel), models.SeverityMedium),
		DeviceID:    req.DeviceID,
		Description: "Network threat detected: " + typ,
		Confidence:  r.Confidence,
		Metrics:     r.Details,
	}}
}

func testAlerts(r *models.DetectionResult, _ *detection.Request) []models.Alert {
	metrics := r.Details
	if metrics == nil {
		metrics = map[string]any{"test_metric": "test_value"}
	}
	return []models.Alert{{
		ThreatType:  orDefault(r.ThreatType, "Test Threat"),
		Severity:    models.SeverityMedium,
		DeviceID:    "test-device",
		Description: "This is a test alert created for development purposes",
		Confidence:  r.Confidence,
		Metrics:     metrics,
	}}
}

// genericAlerts serves methods added through configuration only.
func genericAlerts(r *models.DetectionResult, req *detection.Request) []models.Alert {
	if !r.Detected() {
		return nil
	}
	typ := orDefault(r.ThreatType, "Threat Detected")
	return []models.Alert{{
		ThreatType:  typ,
		Severity:    models.ParseSeverity(orDefault(r.Severity, r.ThreatLevel), models.SeverityMedium),
		DeviceID:    req.DeviceID,
		Description: fmt.Sprintf("%s threat detected: %s", r.DetectionMethod, typ),
		Confidence:  r.Confidence,
		Metrics:     r.Details,
	}}
}
