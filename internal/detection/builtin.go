// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package detection

import (
	"context"

	"github.com/tomtom215/threathub/internal/models"
)

// TestCollaborator always reports a single medium threat. It backs the
// development test-alert endpoint and is registered unconditionally.
func TestCollaborator() Collaborator {
	return CollaboratorFunc(func(context.Context, *Request) (*models.DetectionResult, error) {
		return &models.DetectionResult{
			IsThreat:    true,
			ThreatLevel: string(models.SeverityMedium),
			ThreatType:  "Test Threat",
			Confidence:  0.85,
			Details:     map[string]any{"test_metric": "test_value"},
		}, nil
	})
}
