// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package validation

import (
	"strings"
	"testing"
)

type listRequest struct {
	Limit    int    `query:"limit" validate:"min=1,max=1000"`
	Offset   int    `query:"offset" validate:"min=0"`
	Severity string `query:"severity" validate:"omitempty,severity"`
	Status   string `query:"status" validate:"omitempty,alert_status"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	req := listRequest{Limit: 100, Offset: 0, Severity: "critical", Status: "open"}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       listRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{"limit too small", listRequest{Limit: 0}, "limit", "min", "limit must be at least 1"},
		{"limit too large", listRequest{Limit: 1001}, "limit", "max", "limit must be at most 1000"},
		{"negative offset", listRequest{Limit: 1, Offset: -1}, "offset", "min", "offset must be at least 0"},
		{"bad severity", listRequest{Limit: 1, Severity: "urgent"}, "severity", "severity", "severity must be one of"},
		{"bad status", listRequest{Limit: 1, Status: "resolved"}, "status", "alert_status", "status must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("Expected 1 error, got %d: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantField, tt.wantTag, errs[0].Field(), errs[0].Tag())
			}
			if !strings.HasPrefix(errs[0].Error(), tt.wantMsg) {
				t.Errorf("Expected message starting %q, got %q", tt.wantMsg, errs[0].Error())
			}
			if !err.HasTag(tt.wantTag) {
				t.Errorf("Expected HasTag(%s)", tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&listRequest{Limit: 0})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" || apiErr.Details["field"] != "limit" {
		t.Errorf("Unexpected single APIError: %+v", apiErr)
	}

	multi := ValidateStruct(&listRequest{Limit: 0, Offset: -5, Severity: "x"})
	apiErr = multi.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Errorf("Expected 3 field details, got %+v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "; ") {
		t.Errorf("Expected joined message, got %q", apiErr.Message)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("Expected the same validator instance")
	}
}
