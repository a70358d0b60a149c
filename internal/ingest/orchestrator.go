// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package ingest turns detection requests into stored, broadcast alerts.
//
// For each request the Orchestrator asks the detection gateway for a
// verdict, records the normalized result in the detection history, builds
// alerts with the method's profile, stores each one and pushes it to live
// subscribers. Delivery to subscribers and to the optional event bus is
// best effort: failures are logged and counted, never returned.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/threathub/internal/cache"
	"github.com/tomtom215/threathub/internal/detection"
	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/metrics"
	"github.com/tomtom215/threathub/internal/models"
	"github.com/tomtom215/threathub/internal/store"
)

// Outcome labels for metrics.
const (
	outcomeThreat      = "threat"
	outcomeClean       = "clean"
	outcomeFailure     = "failure"
	outcomeUnavailable = "unavailable"
)

// Detector is the slice of the detection gateway the orchestrator needs.
type Detector interface {
	Detect(ctx context.Context, method models.DetectionMethod, req *detection.Request) (*models.DetectionResult, error)
}

// AlertStore is the slice of the alert store the orchestrator writes to.
type AlertStore interface {
	Insert(a models.Alert) (models.Alert, error)
	InsertDetectionResult(r models.DetectionResult)
	Stats() store.Stats
}

// Broadcaster delivers a stored alert to live subscribers.
type Broadcaster interface {
	BroadcastAlert(ctx context.Context, alert *models.Alert) (int, error)
}

// Publisher forwards a stored alert to an external bus.
type Publisher interface {
	PublishAlert(ctx context.Context, alert *models.Alert) error
}

// Config tunes the orchestrator.
type Config struct {
	// RateWindow is the trailing window for RecentAlertRate. Default 5m.
	RateWindow time.Duration
}

// Outcome is what one detection request produced.
type Outcome struct {
	Result *models.DetectionResult `json:"result"`
	Alerts []models.Alert          `json:"alerts"`
}

// ThreatDetected reports whether any alert was created.
func (o *Outcome) ThreatDetected() bool {
	return len(o.Alerts) > 0
}

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	detector  Detector
	store     AlertStore
	hub       Broadcaster
	publisher Publisher
	rate      *cache.SlidingWindowCounter
}

// New wires an orchestrator. publisher may be nil.
func New(cfg Config, detector Detector, st AlertStore, hub Broadcaster, publisher Publisher) *Orchestrator {
	return &Orchestrator{
		detector:  detector,
		store:     st,
		hub:       hub,
		publisher: publisher,
		rate:      cache.NewSlidingWindowCounter(cfg.RateWindow, 10),
	}
}

// Submit runs one detection for method and ingests whatever it yields.
//
// A collaborator that is unavailable or fails leaves no trace in the
// history or the ledger; the error is returned unchanged so callers can
// tell detection.ErrCollaboratorUnavailable from *detection.DetectionError.
func (o *Orchestrator) Submit(ctx context.Context, method models.DetectionMethod, req *detection.Request) (*Outcome, error) {
	if req == nil {
		req = &detection.Request{}
	}
	log := logging.Ctx(ctx).With().Str("method", string(method)).Logger()

	start := time.Now()
	result, err := o.detector.Detect(ctx, method, req)
	if err != nil {
		outcome := outcomeFailure
		if errors.Is(err, detection.ErrCollaboratorUnavailable) {
			outcome = outcomeUnavailable
		}
		metrics.RecordDetection(string(method), outcome, time.Since(start))
		return nil, err
	}

	o.store.InsertDetectionResult(*result)

	built := builderFor(method)(result, req)
	out := &Outcome{Result: result, Alerts: make([]models.Alert, 0, len(built))}
	for i := range built {
		built[i].DetectionMethod = method
		stored, err := o.Ingest(ctx, built[i])
		if err != nil {
			// Ids are generated by the store, so this only fires on a bug.
			log.Error().Err(err).Msg("failed to store alert")
			continue
		}
		out.Alerts = append(out.Alerts, stored)
	}

	outcome := outcomeClean
	if out.ThreatDetected() {
		outcome = outcomeThreat
	}
	metrics.RecordDetection(string(method), outcome, time.Since(start))
	o.updateGauges()

	log.Debug().
		Int("threats", len(result.ThreatsDetected)).
		Int("alerts", len(out.Alerts)).
		Str("threat_level", result.ThreatLevel).
		Msg("detection processed")
	return out, nil
}

// Ingest stores a and broadcasts the stored copy.
func (o *Orchestrator) Ingest(ctx context.Context, a models.Alert) (models.Alert, error) {
	stored, err := o.store.Insert(a)
	if err != nil {
		return models.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	o.rate.Increment(1)
	metrics.RecordAlertCreated(string(stored.DetectionMethod), string(stored.Severity))

	logging.Ctx(ctx).Info().
		Str("alert_id", stored.ID).
		Str("threat_type", stored.ThreatType).
		Str("severity", string(stored.Severity)).
		Str("method", string(stored.DetectionMethod)).
		Msg("alert created")

	// Delivery must not be cut short by the producer's request ending.
	deliverCtx := context.WithoutCancel(ctx)
	if o.hub != nil {
		if _, err := o.hub.BroadcastAlert(deliverCtx, &stored); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("alert_id", stored.ID).Msg("alert broadcast failed")
		}
	}
	if o.publisher != nil {
		if err := o.publisher.PublishAlert(deliverCtx, &stored); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("alert_id", stored.ID).Msg("alert publish failed")
		}
	}
	return stored, nil
}

// CreateTestAlert runs the built-in test method and returns its alert.
func (o *Orchestrator) CreateTestAlert(ctx context.Context) (models.Alert, error) {
	out, err := o.Submit(ctx, models.MethodTest, &detection.Request{})
	if err != nil {
		return models.Alert{}, err
	}
	if len(out.Alerts) == 0 {
		return models.Alert{}, errors.New("test detection produced no alert")
	}
	return out.Alerts[0], nil
}

// RecentAlertRate returns how many alerts were created inside the rate
// window.
func (o *Orchestrator) RecentAlertRate() (int64, time.Duration) {
	return o.rate.Count(), o.rate.Window()
}

func (o *Orchestrator) updateGauges() {
	s := o.store.Stats()
	metrics.UpdateStoreGauges(s.Alerts, s.AlertHistory, s.DetectionHistory)
}
