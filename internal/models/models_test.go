// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package models

import "testing"

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		def  Severity
		want Severity
	}{
		{"HIGH", SeverityMedium, SeverityHigh},
		{" critical ", SeverityMedium, SeverityCritical},
		{"", SeverityMedium, SeverityMedium},
		{"none", SeverityLow, SeverityLow},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeverityRankOrder(t *testing.T) {
	t.Parallel()

	if !(SeverityLow.Rank() < SeverityMedium.Rank() &&
		SeverityMedium.Rank() < SeverityHigh.Rank() &&
		SeverityHigh.Rank() < SeverityCritical.Rank()) {
		t.Error("expected low < medium < high < critical")
	}
	if Severity("urgent").Valid() {
		t.Error("expected unknown severity to be invalid")
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusOpen, StatusClosed, StatusAcknowledged} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if Status("resolved").Valid() {
		t.Error("expected resolved to be invalid")
	}
}

func TestAlertFilterMatches(t *testing.T) {
	t.Parallel()

	a := &Alert{Severity: SeverityCritical, Status: StatusOpen, DetectionMethod: MethodSignature}
	tests := []struct {
		name   string
		filter AlertFilter
		want   bool
	}{
		{"empty", AlertFilter{}, true},
		{"severity match", AlertFilter{Severity: SeverityCritical}, true},
		{"both match", AlertFilter{Severity: SeverityCritical, Status: StatusOpen}, true},
		{"status mismatch", AlertFilter{Severity: SeverityCritical, Status: StatusClosed}, false},
		{"method mismatch", AlertFilter{DetectionMethod: MethodBehavioral}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(a); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllThreatTypes(t *testing.T) {
	t.Parallel()

	r := &DetectionResult{ThreatsDetected: []Threat{{Type: "phishing"}, {Type: "c2"}, {Type: "phishing"}, {}}}
	got := r.AllThreatTypes()
	if len(got) != 2 || got[0] != "phishing" || got[1] != "c2" {
		t.Errorf("expected [phishing c2], got %v", got)
	}
	if !r.Detected() {
		t.Error("expected result with threats to be detected")
	}

	listed := &DetectionResult{ThreatTypes: []string{"dga"}}
	if got := listed.AllThreatTypes(); len(got) != 1 || got[0] != "dga" {
		t.Errorf("expected [dga], got %v", got)
	}
}

func TestDetectionMethodKnown(t *testing.T) {
	t.Parallel()

	for _, m := range DetectionMethods {
		if !m.Known() {
			t.Errorf("Expected %s to be known", m)
		}
	}
	for _, m := range []DetectionMethod{"", "yara", "Signature"} {
		if m.Known() {
			t.Errorf("Expected %q to be unknown", m)
		}
	}
}
