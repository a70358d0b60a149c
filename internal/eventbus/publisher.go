// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

//go:build nats

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/metrics"
	"github.com/tomtom215/threathub/internal/models"
)

// Publisher forwards alerts to NATS behind a circuit breaker.
type Publisher struct {
	cfg       Config
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher connects a Watermill NATS publisher to url. The connection is
// retried in the background, so a broker that is not up yet is not an error.
func NewPublisher(cfg Config, url string) (*Publisher, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())

	natsOpts := []natsgo.Option{
		natsgo.Name("threathub"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      !cfg.JetStream,
			AutoProvision: cfg.JetStream,
			TrackMsgId:    cfg.JetStream,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{
		cfg:       cfg,
		publisher: pub,
		breaker:   newCircuitBreaker("eventbus-publisher", cfg.FailureThreshold, cfg.BreakerTimeout),
	}, nil
}

// PublishAlert publishes a to its method subject. The alert id doubles as
// the Watermill message UUID and the JetStream dedup id.
func (p *Publisher) PublishAlert(_ context.Context, a *models.Alert) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	data, err := encodeAlert(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	msg := message.NewMessage(a.ID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, a.ID)
	msg.Metadata.Set("severity", string(a.Severity))
	msg.Metadata.Set("detection_method", string(a.DetectionMethod))

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(p.cfg.Subject(a.DetectionMethod), msg)
	})
	metrics.RecordEventBusPublish(err)
	if err != nil {
		return fmt.Errorf("publish alert %s: %w", a.ID, err)
	}
	return nil
}

// Close shuts down the publisher. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
