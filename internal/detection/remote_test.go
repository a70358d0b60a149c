// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package detection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/threathub/internal/models"
)

func newTestRemote(t *testing.T, method models.DetectionMethod, handler http.HandlerFunc, breaker BreakerConfig) *RemoteCollaborator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewRemoteCollaborator(RemoteConfig{
		Method:  method,
		URL:     srv.URL,
		Timeout: 2 * time.Second,
		Headers: map[string]string{"X-Api-Key": "secret"},
		Breaker: breaker,
	})
	if err != nil {
		t.Fatalf("NewRemoteCollaborator() error = %v", err)
	}
	return r
}

func TestNewRemoteCollaboratorRejectsBadURL(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"ftp://detector", "://bad", "detector:9000"} {
		if _, err := NewRemoteCollaborator(RemoteConfig{Method: models.MethodSignature, URL: u}); err == nil {
			t.Errorf("Expected error for url %q", u)
		}
	}
}

func TestRemoteDetectDecodesResult(t *testing.T) {
	t.Parallel()

	var gotReq Request
	var gotKey string
	r := newTestRemote(t, models.MethodBehavioral, func(w http.ResponseWriter, req *http.Request) {
		gotKey = req.Header.Get("X-Api-Key")
		_ = json.NewDecoder(req.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"threats_detected":[{"type":"lateral_movement","confidence":0.7}],"threat_level":"HIGH","overall_risk_score":8.5}`))
	}, BreakerConfig{})

	res, err := r.Detect(context.Background(), &Request{DeviceID: "host-1", SystemData: map[string]any{"cpu": 97.0}})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("Expected configured header, got %q", gotKey)
	}
	if gotReq.DeviceID != "host-1" {
		t.Errorf("Expected device_id forwarded, got %q", gotReq.DeviceID)
	}
	if len(res.ThreatsDetected) != 1 || res.ThreatsDetected[0].Type != "lateral_movement" {
		t.Errorf("Expected one lateral_movement threat, got %+v", res.ThreatsDetected)
	}
	if res.OverallRiskScore != 8.5 {
		t.Errorf("Expected risk 8.5, got %v", res.OverallRiskScore)
	}
}

func TestRemoteDetectAlternateFieldNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, r *models.DetectionResult)
	}{
		{
			name: "advanced_threats",
			body: `{"advanced_threats":[{"type":"apt","confidence":0.9}]}`,
			check: func(t *testing.T, r *models.DetectionResult) {
				if len(r.ThreatsDetected) != 1 || r.ThreatsDetected[0].Type != "apt" {
					t.Errorf("Expected apt threat, got %+v", r.ThreatsDetected)
				}
			},
		},
		{
			name: "detected flag",
			body: `{"detected":true,"confidence":0.92,"threat_type":"Emotet"}`,
			check: func(t *testing.T, r *models.DetectionResult) {
				if !r.IsThreat {
					t.Error("Expected detected=true to set IsThreat")
				}
			},
		},
		{
			name: "features as details",
			body: `{"prediction":"malicious","features":{"entropy":7.9}}`,
			check: func(t *testing.T, r *models.DetectionResult) {
				if r.Details["entropy"] != 7.9 {
					t.Errorf("Expected features copied to details, got %v", r.Details)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRemote(t, models.MethodAdvanced, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, BreakerConfig{})
			res, err := r.Detect(context.Background(), &Request{})
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			tt.check(t, res)
		})
	}
}

func TestRemoteDetectHTTPError(t *testing.T) {
	t.Parallel()

	r := newTestRemote(t, models.MethodFileAnalysis, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}, BreakerConfig{})

	_, err := r.Detect(context.Background(), &Request{FilePath: "/tmp/a.exe"})
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
	if errors.Is(err, ErrCollaboratorUnavailable) {
		t.Errorf("Expected plain failure while circuit closed, got %v", err)
	}
}

func TestRemoteBreakerOpensAndRejects(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := newTestRemote(t, models.MethodEncrypted, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, BreakerConfig{MinRequests: 3, FailureRatio: 0.5, Timeout: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := r.Detect(context.Background(), &Request{}); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	_, err := r.Detect(context.Background(), &Request{})
	if !errors.Is(err, ErrCollaboratorUnavailable) {
		t.Errorf("Expected ErrCollaboratorUnavailable once open, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected open breaker to skip the detector, got %d calls", got)
	}
}

func TestRemoteThroughGateway(t *testing.T) {
	t.Parallel()

	r := newTestRemote(t, models.MethodSignature, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, BreakerConfig{})

	g := NewGateway()
	g.Register(models.MethodSignature, r)
	_, err := g.Detect(context.Background(), models.MethodSignature, &Request{})

	var de *DetectionError
	if !errors.As(err, &de) {
		t.Errorf("Expected DetectionError for undecodable body, got %v", err)
	}
}

func TestStateHelpers(t *testing.T) {
	t.Parallel()

	if stateToString(99) != "unknown" || stateToFloat(99) != -1 {
		t.Error("Expected unknown state mapping")
	}
}
