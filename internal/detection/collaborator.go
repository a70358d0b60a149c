// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package detection

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/threathub/internal/models"
)

// ErrCollaboratorUnavailable means the requested detector is not configured,
// failed to initialize, or is shedding load behind an open circuit. It is
// never reported as "no threat".
var ErrCollaboratorUnavailable = errors.New("detection collaborator unavailable")

// DetectionError wraps a failure raised by a collaborator during a call.
type DetectionError struct {
	Method models.DetectionMethod
	Err    error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("%s detection failed: %v", e.Method, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Request is the bag handed to a collaborator. Any subset may be set.
type Request struct {
	FilePath          string         `json:"file_path,omitempty" validate:"omitempty,max=4096"`
	SystemData        map[string]any `json:"system_data,omitempty"`
	NetworkData       map[string]any `json:"network_data,omitempty"`
	CommunicationData map[string]any `json:"communication_data,omitempty"`
	// Metrics carries raw feature values for the trained models.
	Metrics  map[string]any `json:"metrics,omitempty"`
	DeviceID string         `json:"device_id,omitempty" validate:"omitempty,max=256"`
}

// IsEmpty reports whether the request carries no input at all.
func (r *Request) IsEmpty() bool {
	return r.FilePath == "" && len(r.SystemData) == 0 && len(r.NetworkData) == 0 &&
		len(r.CommunicationData) == 0 && len(r.Metrics) == 0
}

// Collaborator performs the actual analysis for one detection method.
type Collaborator interface {
	Detect(ctx context.Context, req *Request) (*models.DetectionResult, error)
}

// CollaboratorFunc adapts a function to Collaborator.
type CollaboratorFunc func(ctx context.Context, req *Request) (*models.DetectionResult, error)

// Detect calls f.
func (f CollaboratorFunc) Detect(ctx context.Context, req *Request) (*models.DetectionResult, error) {
	return f(ctx, req)
}
