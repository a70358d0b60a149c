// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package store holds the in-memory alert ledger and the two bounded
// histories (stored alerts and raw detection results).
//
// The ledger is read most-recent-first. Internally it is kept oldest-first so
// an insert is an O(1) amortized append; reads walk it backwards. Each history
// is a cache.Ring that evicts its oldest entry once full.
//
// The store never broadcasts. Callers that want live delivery publish the
// returned alert themselves.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/threathub/internal/cache"
	"github.com/tomtom215/threathub/internal/models"
)

const (
	// DefaultHistoryCapacity bounds both histories.
	DefaultHistoryCapacity = 1000

	// MaxPageSize caps List regardless of the requested limit.
	MaxPageSize = 1000
)

var (
	// ErrDuplicateAlert is returned when an alert id is already in the ledger.
	ErrDuplicateAlert = errors.New("duplicate alert id")

	// ErrAlertNotFound is returned by lookups and status updates for unknown ids.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidStatus is returned when a status update names an unknown status.
	ErrInvalidStatus = errors.New("invalid alert status")
)

// Config controls store bounds.
type Config struct {
	// HistoryCapacity is the size of each ring. Default 1000.
	HistoryCapacity int

	// MaxAlerts caps the ledger; 0 keeps every alert for the process lifetime.
	MaxAlerts int
}

// Store is safe for concurrent use. All mutations happen under one lock and
// no lock is held across I/O.
type Store struct {
	mu           sync.RWMutex
	ledger       []*models.Alert
	index        map[string]*models.Alert
	alertHistory *cache.Ring[*models.Alert]
	detections   *cache.Ring[models.DetectionResult]
	maxAlerts    int
	evicted      int64

	now func() time.Time
}

// New creates an empty store.
func New(cfg Config) *Store {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	if cfg.MaxAlerts < 0 {
		cfg.MaxAlerts = 0
	}
	return &Store{
		index:        make(map[string]*models.Alert),
		alertHistory: cache.NewRing[*models.Alert](cfg.HistoryCapacity),
		detections:   cache.NewRing[models.DetectionResult](cfg.HistoryCapacity),
		maxAlerts:    cfg.MaxAlerts,
		now:          time.Now,
	}
}

// Insert stores a at the head of the ledger and appends it to the alert
// history. Missing id, timestamp, status and device are filled in. The
// stored copy is returned.
func (s *Store) Insert(a models.Alert) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	} else if _, exists := s.index[a.ID]; exists {
		return models.Alert{}, fmt.Errorf("%w: %s", ErrDuplicateAlert, a.ID)
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now().UTC()
	}
	if a.Status == "" {
		a.Status = models.StatusOpen
	}
	if a.DeviceID == "" {
		a.DeviceID = models.DefaultDeviceID
	}

	stored := a
	s.ledger = append(s.ledger, &stored)
	s.index[stored.ID] = &stored
	s.alertHistory.Push(&stored)

	if s.maxAlerts > 0 && len(s.ledger) > s.maxAlerts {
		oldest := s.ledger[0]
		s.ledger[0] = nil
		s.ledger = s.ledger[1:]
		delete(s.index, oldest.ID)
		s.evicted++
	}
	return stored, nil
}

// InsertDetectionResult appends r to the detection history.
func (s *Store) InsertDetectionResult(r models.DetectionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	s.detections.Push(r)
}

// List returns a most-recent-first page of alerts matching filter.
// limit is capped at MaxPageSize and a negative offset is treated as 0.
// An offset past the end yields an empty slice, never an error.
func (s *Store) List(filter models.AlertFilter, offset, limit int) []models.Alert {
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	out := make([]models.Alert, 0, min(max(limit, 0), 64))
	if limit <= 0 {
		return out
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	skipped := 0
	for i := len(s.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		a := s.ledger[i]
		if !filter.Matches(a) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, *a)
	}
	return out
}

// Count returns the number of ledger alerts matching filter.
func (s *Store) Count(filter models.AlertFilter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if filter.IsZero() {
		return len(s.ledger)
	}
	n := 0
	for _, a := range s.ledger {
		if filter.Matches(a) {
			n++
		}
	}
	return n
}

// Snapshot copies the whole ledger, most recent first.
func (s *Store) Snapshot() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, len(s.ledger))
	for i, a := range s.ledger {
		out[len(s.ledger)-1-i] = *a
	}
	return out
}

// Get returns the alert with the given id.
func (s *Store) Get(id string) (models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.index[id]
	if !ok {
		return models.Alert{}, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return *a, nil
}

// UpdateStatus changes the status of a ledger alert in place.
func (s *Store) UpdateStatus(id string, status models.Status) (models.Alert, error) {
	if !status.Valid() {
		return models.Alert{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.index[id]
	if !ok {
		return models.Alert{}, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	a.Status = status
	return *a, nil
}

// RecentAlerts returns up to limit of the newest alert-history entries in
// chronological order. History entries share state with the ledger, so
// status updates show up here too.
func (s *Store) RecentAlerts(limit int) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := s.alertHistory.Last(limit)
	out := make([]models.Alert, len(recent))
	for i, a := range recent {
		out[i] = *a
	}
	return out
}

// RecentDetections returns up to limit of the newest detection results in
// chronological order.
func (s *Store) RecentDetections(limit int) []models.DetectionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detections.Last(limit)
}

// Stats is a point-in-time view of store sizes.
type Stats struct {
	Alerts           int   `json:"alerts"`
	AlertHistory     int   `json:"alert_history"`
	DetectionHistory int   `json:"detection_history"`
	HistoryCapacity  int   `json:"history_capacity"`
	EvictedAlerts    int64 `json:"evicted_alerts"`
}

// Stats returns current sizes.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Alerts:           len(s.ledger),
		AlertHistory:     s.alertHistory.Len(),
		DetectionHistory: s.detections.Len(),
		HistoryCapacity:  s.alertHistory.Cap(),
		EvictedAlerts:    s.evicted,
	}
}
