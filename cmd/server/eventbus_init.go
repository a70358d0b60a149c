// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/threathub/internal/config"
	"github.com/tomtom215/threathub/internal/eventbus"
	"github.com/tomtom215/threathub/internal/ingest"
	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/supervisor"
	"github.com/tomtom215/threathub/internal/supervisor/services"
)

// eventBus holds the optional NATS components. The zero value means the
// bus is disabled.
type eventBus struct {
	publisher *eventbus.Publisher
	server    *eventbus.EmbeddedServer
}

func eventBusConfig(c config.NATSConfig) eventbus.Config {
	bc := eventbus.DefaultConfig()
	bc.Enabled = c.Enabled
	bc.URL = c.URL
	bc.Embedded = c.EmbeddedServer
	bc.Host = c.Host
	bc.Port = c.Port
	bc.StoreDir = c.StoreDir
	bc.JetStream = c.JetStream
	bc.SubjectPrefix = c.SubjectPrefix
	bc.MaxReconnects = c.MaxReconnects
	bc.ReconnectWait = c.ReconnectWait
	if c.FailureThreshold > 0 {
		bc.FailureThreshold = c.FailureThreshold
	}
	return bc
}

// initEventBus starts the embedded server when configured and connects the
// publisher. A binary built without the nats tag logs a warning and runs
// without the bus.
func initEventBus(cfg *config.Config) (*eventBus, error) {
	bus := &eventBus{}
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Event bus disabled (NATS_ENABLED=false)")
		return bus, nil
	}

	bc := eventBusConfig(cfg.NATS)
	url := bc.URL

	if bc.Embedded {
		srv, err := eventbus.NewEmbeddedServer(bc)
		if errors.Is(err, eventbus.ErrNotAvailable) {
			logging.Warn().Err(err).Msg("Event bus requested but not compiled in")
			return bus, nil
		}
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		bus.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pub, err := eventbus.NewPublisher(bc, url)
	if errors.Is(err, eventbus.ErrNotAvailable) {
		logging.Warn().Err(err).Msg("Event bus requested but not compiled in")
		return bus, nil
	}
	if err != nil {
		bus.shutdownServer()
		return nil, fmt.Errorf("connect alert publisher: %w", err)
	}
	bus.publisher = pub

	logging.Info().
		Str("url", url).
		Str("subject_prefix", bc.SubjectPrefix).
		Bool("jetstream", bc.JetStream).
		Msg("Alert publisher connected")
	return bus, nil
}

// alertPublisher returns nil when the bus is disabled, so the orchestrator
// sees a nil interface rather than a typed nil pointer.
func (b *eventBus) alertPublisher() ingest.Publisher {
	if b.publisher == nil {
		return nil
	}
	return b.publisher
}

func (b *eventBus) addToSupervisor(tree *supervisor.SupervisorTree, shutdownTimeout time.Duration) {
	if b.publisher == nil {
		return
	}
	var broker services.Broker
	if b.server != nil {
		broker = b.server
	}
	tree.AddMessagingService(services.NewEventBusService(b.publisher, broker, shutdownTimeout))
	logging.Info().Msg("Event bus added to supervisor tree (messaging layer)")
}

func (b *eventBus) shutdownServer() {
	if b.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.server.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS server shutdown incomplete")
	}
}
