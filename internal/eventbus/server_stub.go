// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

//go:build !nats

package eventbus

import "context"

// EmbeddedServer is a stub when NATS dependencies are not compiled in.
type EmbeddedServer struct{}

// NewEmbeddedServer always fails in this build.
func NewEmbeddedServer(Config) (*EmbeddedServer, error) {
	return nil, ErrNotAvailable
}

// ClientURL returns an empty string.
func (s *EmbeddedServer) ClientURL() string {
	return ""
}

// Shutdown is a no-op.
func (s *EmbeddedServer) Shutdown(context.Context) error {
	return nil
}

// IsRunning always reports false.
func (s *EmbeddedServer) IsRunning() bool {
	return false
}
