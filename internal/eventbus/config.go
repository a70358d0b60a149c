// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package eventbus forwards stored alerts to NATS through Watermill so other
// systems (SIEMs, ticketing, archives) can consume them. Each alert is
// published as JSON to <prefix>.<detection_method>.
//
// The NATS implementation is compiled only with -tags=nats; the default build
// carries stubs that report the bus as unavailable.
package eventbus

import (
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
)

// ErrNotAvailable is returned by the stub build.
var ErrNotAvailable = errors.New("NATS event bus not available: build with -tags=nats")

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Config configures the event bus.
type Config struct {
	Enabled bool
	// URL of an external NATS server. Ignored when Embedded is set.
	URL string
	// Embedded starts an in-process NATS server.
	Embedded bool
	Host     string
	Port     int
	StoreDir string
	// JetStream publishes to an auto-provisioned stream instead of core NATS.
	JetStream       bool
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
	// FailureThreshold is the consecutive publish failures that open the
	// circuit.
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// DefaultConfig returns a disabled bus with sensible connection settings.
func DefaultConfig() Config {
	return Config{
		URL:              "nats://127.0.0.1:4222",
		Host:             "127.0.0.1",
		Port:             4222,
		StoreDir:         "/data/nats/jetstream",
		SubjectPrefix:    "threathub.alerts",
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		FailureThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// Subject returns the subject an alert with method is published to.
func (c Config) Subject(method models.DetectionMethod) string {
	prefix := strings.TrimSuffix(c.SubjectPrefix, ".")
	if prefix == "" {
		prefix = "threathub.alerts"
	}
	m := string(method)
	if m == "" {
		m = "unknown"
	}
	// NATS tokens cannot contain separators or wildcards.
	m = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(m)
	return prefix + "." + m
}

// alertEvent is the published payload.
type alertEvent struct {
	EventType string        `json:"event_type"`
	Alert     *models.Alert `json:"alert"`
}

func encodeAlert(a *models.Alert) ([]byte, error) {
	return json.Marshal(alertEvent{EventType: "alert.created", Alert: a})
}

// DecodeAlert parses a payload produced by the publisher.
func DecodeAlert(data []byte) (*models.Alert, error) {
	var ev alertEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Alert == nil {
		return nil, errors.New("event carries no alert")
	}
	return ev.Alert, nil
}

// newCircuitBreaker trips after threshold consecutive publish failures.
func newCircuitBreaker(name string, threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker[struct{}] {
	if threshold == 0 {
		threshold = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
		},
	})
}
