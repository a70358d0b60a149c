// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package detection

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
)

//nolint:gochecknoinits // Test setup requires init for logger configuration
func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func staticCollaborator(r *models.DetectionResult, err error) Collaborator {
	return CollaboratorFunc(func(context.Context, *Request) (*models.DetectionResult, error) {
		return r, err
	})
}

func TestDetectUnboundMethod(t *testing.T) {
	t.Parallel()

	g := NewGateway()
	_, err := g.Detect(context.Background(), models.MethodSignature, &Request{})
	if !errors.Is(err, ErrCollaboratorUnavailable) {
		t.Errorf("Expected ErrCollaboratorUnavailable, got %v", err)
	}
}

func TestDetectErrorClassification(t *testing.T) {
	t.Parallel()

	boom := errors.New("model crashed")
	tests := []struct {
		name            string
		collab          Collaborator
		wantUnavailable bool
		wantDetection   bool
	}{
		{"collaborator failure", staticCollaborator(nil, boom), false, true},
		{"nil result", staticCollaborator(nil, nil), false, true},
		{"collaborator unavailable", staticCollaborator(nil, ErrCollaboratorUnavailable), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGateway()
			g.Register(models.MethodBehavioral, tt.collab)
			_, err := g.Detect(context.Background(), models.MethodBehavioral, nil)
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := errors.Is(err, ErrCollaboratorUnavailable); got != tt.wantUnavailable {
				t.Errorf("Expected unavailable=%v, got %v (%v)", tt.wantUnavailable, got, err)
			}
			var de *DetectionError
			if got := errors.As(err, &de); got != tt.wantDetection {
				t.Errorf("Expected DetectionError=%v, got %v (%v)", tt.wantDetection, got, err)
			}
			if tt.wantDetection && de.Method != models.MethodBehavioral {
				t.Errorf("Expected method behavioral, got %q", de.Method)
			}
		})
	}
}

func TestDetectNormalizesResult(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	g := NewGateway()
	g.now = func() time.Time { return fixed }
	g.Register(models.MethodEncrypted, staticCollaborator(&models.DetectionResult{
		ThreatsDetected: []models.Threat{{Type: "tls_anomaly"}, {Type: "tls_anomaly"}, {Type: "dga"}},
	}, nil))

	got, err := g.Detect(context.Background(), models.MethodEncrypted, &Request{})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got.DetectionMethod != models.MethodEncrypted {
		t.Errorf("Expected method encrypted, got %q", got.DetectionMethod)
	}
	if !got.Timestamp.Equal(fixed) {
		t.Errorf("Expected timestamp %v, got %v", fixed, got.Timestamp)
	}
	if got.ThreatLevel != "medium" {
		t.Errorf("Expected default threat level medium, got %q", got.ThreatLevel)
	}
	if len(got.ThreatTypes) != 2 || got.ThreatTypes[0] != "tls_anomaly" || got.ThreatTypes[1] != "dga" {
		t.Errorf("Expected distinct threat types [tls_anomaly dga], got %v", got.ThreatTypes)
	}
}

func TestDetectCleanResult(t *testing.T) {
	t.Parallel()

	g := NewGateway()
	g.Register(models.MethodSignature, staticCollaborator(&models.DetectionResult{}, nil))

	got, err := g.Detect(context.Background(), models.MethodSignature, &Request{FilePath: "/tmp/x"})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got.ThreatsDetected == nil {
		t.Error("Expected empty, non-nil threats slice")
	}
	if got.ThreatLevel != "none" {
		t.Errorf("Expected threat level none, got %q", got.ThreatLevel)
	}
}

func TestDetectDoesNotMutateCollaboratorResult(t *testing.T) {
	t.Parallel()

	original := &models.DetectionResult{IsThreat: true}
	g := NewGateway()
	g.Register(models.MethodTrainedModel, staticCollaborator(original, nil))

	if _, err := g.Detect(context.Background(), models.MethodTrainedModel, nil); err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if original.DetectionMethod != "" || !original.Timestamp.IsZero() {
		t.Error("Expected collaborator result to be left untouched")
	}
}

func TestModuleStatus(t *testing.T) {
	t.Parallel()

	g := NewGateway()
	g.Register(models.MethodSignature, staticCollaborator(&models.DetectionResult{}, nil))
	g.Register(models.MethodTrainedModel, staticCollaborator(&models.DetectionResult{}, nil))

	status := g.ModuleStatus()
	if len(status) != 5 {
		t.Fatalf("Expected 5 modules, got %d", len(status))
	}
	if status["signature_detection"] != models.ModuleActive {
		t.Errorf("Expected signature_detection active, got %q", status["signature_detection"])
	}
	if status["file_analysis"] != models.ModuleInactive {
		t.Errorf("Expected file_analysis inactive, got %q", status["file_analysis"])
	}

	tm := g.TrainedModelStatus()
	if !tm["trained_models_available"] || !tm["windows10_detector"] {
		t.Errorf("Expected windows10 detector available, got %v", tm)
	}
	if tm["ml_model"] || tm["enhanced_detector"] {
		t.Errorf("Expected ml_model and enhanced_detector unavailable, got %v", tm)
	}
	if !tm["enhanced_modules_available"] {
		t.Error("Expected enhanced modules available with signature bound")
	}
}

func TestMethodsAndWeights(t *testing.T) {
	t.Parallel()

	g := NewGateway()
	g.Register(models.MethodSignature, staticCollaborator(nil, nil))
	g.Register(models.MethodBehavioral, staticCollaborator(nil, nil))
	g.SetWeight(models.MethodSignature, 0.4)

	methods := g.Methods()
	if len(methods) != 2 || methods[0] != models.MethodBehavioral {
		t.Errorf("Expected sorted [behavioral signature], got %v", methods)
	}

	w := g.Weights()
	w["signature"] = 99
	if g.Weights()["signature"] != 0.4 {
		t.Error("Expected Weights to return a copy")
	}
}
