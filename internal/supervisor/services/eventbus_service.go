// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/tomtom215/threathub/internal/logging"
)

// Broker is satisfied by *eventbus.EmbeddedServer.
type Broker interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// EventBusService owns the event bus for the lifetime of the tree. The
// publisher and optional embedded broker are started by the caller; this
// service releases them in order when the tree stops.
type EventBusService struct {
	publisher       io.Closer
	broker          Broker
	shutdownTimeout time.Duration
	name            string
}

// NewEventBusService wraps publisher and broker. broker may be nil when an
// external NATS server is used.
func NewEventBusService(publisher io.Closer, broker Broker, shutdownTimeout time.Duration) *EventBusService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventBusService{
		publisher:       publisher,
		broker:          broker,
		shutdownTimeout: shutdownTimeout,
		name:            "event-bus",
	}
}

// ErrBrokerStopped is returned when the embedded broker dies underneath
// the service.
var ErrBrokerStopped = errors.New("embedded NATS server stopped")

// brokerPollInterval is how often the embedded broker's health is checked.
const brokerPollInterval = 5 * time.Second

// Serve implements suture.Service. It blocks until ctx is canceled, then
// closes the publisher before stopping the broker so in-flight publishes
// can drain.
func (s *EventBusService) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if s.broker != nil {
		ticker := time.NewTicker(brokerPollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-tick:
			if !s.broker.IsRunning() {
				logging.Error().Msg("Embedded NATS server is no longer running")
				return ErrBrokerStopped
			}
		}
	}
}

func (s *EventBusService) shutdown() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close alert publisher")
		}
	}
	if s.broker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.broker.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server shutdown incomplete")
		}
	}
}

func (s *EventBusService) String() string {
	return s.name
}
