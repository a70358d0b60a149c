// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package detection is the gateway between ThreatHub and its detection
// collaborators. Each detection method is bound to at most one
// Collaborator; the gateway dispatches to it and returns a normalized
// models.DetectionResult. It never writes to the alert store.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
)

// Module names reported on the dashboard, in display order.
var dashboardModules = []struct {
	name   string
	method models.DetectionMethod
}{
	{"signature_detection", models.MethodSignature},
	{"file_analysis", models.MethodFileAnalysis},
	{"behavioral_analysis", models.MethodBehavioral},
	{"encrypted_detection", models.MethodEncrypted},
	{"social_engineering", models.MethodSocialEngineering},
}

// Gateway routes detection requests to registered collaborators.
type Gateway struct {
	mu            sync.RWMutex
	collaborators map[models.DetectionMethod]Collaborator
	weights       map[string]float64
	now           func() time.Time
}

// NewGateway creates a gateway with no collaborators.
func NewGateway() *Gateway {
	return &Gateway{
		collaborators: make(map[models.DetectionMethod]Collaborator),
		weights:       make(map[string]float64),
		now:           time.Now,
	}
}

// Register binds c to method, replacing any previous binding.
func (g *Gateway) Register(method models.DetectionMethod, c Collaborator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.collaborators[method] = c
}

// SetWeight records the ensemble weight reported for a method.
func (g *Gateway) SetWeight(method models.DetectionMethod, weight float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.weights[string(method)] = weight
}

// Available reports whether method has a collaborator.
func (g *Gateway) Available(method models.DetectionMethod) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.collaborators[method]
	return ok
}

// Methods lists the bound methods in sorted order.
func (g *Gateway) Methods() []models.DetectionMethod {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.DetectionMethod, 0, len(g.collaborators))
	for m := range g.collaborators {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Detect runs the collaborator bound to method and normalizes its result.
//
// Errors:
//   - ErrCollaboratorUnavailable (wrapped) when nothing is bound to method
//     or the collaborator reports itself unavailable
//   - *DetectionError for any other collaborator failure
func (g *Gateway) Detect(ctx context.Context, method models.DetectionMethod, req *Request) (*models.DetectionResult, error) {
	g.mu.RLock()
	c, ok := g.collaborators[method]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollaboratorUnavailable, method)
	}
	if req == nil {
		req = &Request{}
	}

	result, err := c.Detect(ctx, req)
	if err != nil {
		if errors.Is(err, ErrCollaboratorUnavailable) {
			return nil, err
		}
		logging.Ctx(ctx).Warn().Err(err).Str("method", string(method)).Msg("collaborator call failed")
		return nil, &DetectionError{Method: method, Err: err}
	}
	if result == nil {
		return nil, &DetectionError{Method: method, Err: errors.New("collaborator returned no result")}
	}

	normalized := *result
	normalized.DetectionMethod = method
	if normalized.Timestamp.IsZero() {
		normalized.Timestamp = g.now().UTC()
	}
	if normalized.ThreatsDetected == nil {
		normalized.ThreatsDetected = []models.Threat{}
	}
	if normalized.ThreatLevel == "" {
		normalized.ThreatLevel = "none"
		if normalized.Detected() {
			normalized.ThreatLevel = string(models.SeverityMedium)
		}
	}
	if len(normalized.ThreatTypes) == 0 {
		normalized.ThreatTypes = normalized.AllThreatTypes()
	}
	return &normalized, nil
}

// ModuleStatus reports the dashboard modules as active or inactive.
func (g *Gateway) ModuleStatus() map[string]string {
	out := make(map[string]string, len(dashboardModules))
	for _, m := range dashboardModules {
		out[m.name] = statusLabel(g.Available(m.method))
	}
	return out
}

// TrainedModelStatus reports the trained-model and ensemble collaborators.
func (g *Gateway) TrainedModelStatus() map[string]bool {
	windows := g.Available(models.MethodTrainedModel)
	ml := g.Available(models.MethodMLModel)
	enhanced := g.Available(models.MethodEnsemble) || g.Available(models.MethodAdvanced)

	anyModule := false
	for _, m := range dashboardModules {
		anyModule = anyModule || g.Available(m.method)
	}
	return map[string]bool{
		"trained_models_available":   windows || ml,
		"windows10_detector":         windows,
		"ml_model":                   ml,
		"enhanced_modules_available": anyModule,
		"enhanced_detector":          enhanced,
	}
}

// Weights returns a copy of the configured detection weights.
func (g *Gateway) Weights() map[string]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]float64, len(g.weights))
	for k, v := range g.weights {
		out[k] = v
	}
	return out
}

func statusLabel(active bool) string {
	if active {
		return models.ModuleActive
	}
	return models.ModuleInactive
}
