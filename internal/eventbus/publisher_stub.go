// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

//go:build !nats

package eventbus

import (
	"context"

	"github.com/tomtom215/threathub/internal/models"
)

// Publisher is a stub when NATS dependencies are not compiled in.
type Publisher struct{}

// NewPublisher always fails in this build.
func NewPublisher(Config, string) (*Publisher, error) {
	return nil, ErrNotAvailable
}

// PublishAlert always fails in this build.
func (p *Publisher) PublishAlert(context.Context, *models.Alert) error {
	return ErrNotAvailable
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
