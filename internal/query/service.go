// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

// Package query validates and serves alert list, legacy list and detection
// history reads over the store. Out-of-range values are rejected, never
// clamped.
package query

import (
	"errors"

	"github.com/tomtom215/threathub/internal/models"
	"github.com/tomtom215/threathub/internal/validation"
)

const (
	DefaultLimit        = 100
	MaxLimit            = 1000
	LegacyLimit         = 100
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

var (
	// ErrInvalidQuery marks pagination values outside their contract.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidFilter marks filter values outside their enum.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Error carries the field failures behind ErrInvalidQuery or ErrInvalidFilter.
type Error struct {
	Kind       error
	Validation *validation.RequestValidationError
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Validation.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ListRequest is a filtered, paginated alert read.
type ListRequest struct {
	Limit           int    `query:"limit" validate:"min=1,max=1000"`
	Offset          int    `query:"offset" validate:"min=0"`
	Severity        string `query:"severity" validate:"omitempty,severity"`
	Status          string `query:"status" validate:"omitempty,alert_status"`
	DetectionMethod string `query:"detection_method" validate:"omitempty,max=64"`
}

// NewListRequest returns a request with the default page.
func NewListRequest() ListRequest {
	return ListRequest{Limit: DefaultLimit}
}

// Filter converts the request's filter fields.
func (r *ListRequest) Filter() models.AlertFilter {
	return models.AlertFilter{
		Severity:        models.Severity(r.Severity),
		Status:          models.Status(r.Status),
		DetectionMethod: models.DetectionMethod(r.DetectionMethod),
	}
}

// History kinds.
const (
	HistoryDetections = "detections"
	HistoryAlerts     = "alerts"
)

// HistoryRequest reads one of the bounded histories. An empty Kind means
// detections.
type HistoryRequest struct {
	Limit int    `query:"limit" validate:"min=1,max=200"`
	Kind  string `query:"kind" validate:"omitempty,oneof=detections alerts"`
}

// NewHistoryRequest returns a request with the default limit.
func NewHistoryRequest() HistoryRequest {
	return HistoryRequest{Limit: DefaultHistoryLimit}
}

// AlertPage is one page of alerts plus the filtered total.
type AlertPage struct {
	Alerts []models.Alert `json:"alerts"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Store is the read side of the alert store.
type Store interface {
	List(filter models.AlertFilter, offset, limit int) []models.Alert
	Count(filter models.AlertFilter) int
	RecentAlerts(limit int) []models.Alert
	RecentDetections(limit int) []models.DetectionResult
}

// Service serves validated reads.
type Service struct {
	store Store
}

// NewService creates a query service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListAlerts validates req and returns the matching page, most recent first.
func (s *Service) ListAlerts(req ListRequest) (*AlertPage, error) {
	if err := check(&req); err != nil {
		return nil, err
	}
	filter := req.Filter()
	return &AlertPage{
		Alerts: s.store.List(filter, req.Offset, req.Limit),
		Total:  s.store.Count(filter),
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// Legacy returns the newest LegacyLimit alerts without filtering. It is
// always a prefix of the unfiltered ledger order.
func (s *Service) Legacy() []models.Alert {
	return s.store.List(models.AlertFilter{}, 0, LegacyLimit)
}

// DetectionHistory returns the newest req.Limit detection results in
// chronological order.
func (s *Service) DetectionHistory(req HistoryRequest) ([]models.DetectionResult, error) {
	if err := check(&req); err != nil {
		return nil, err
	}
	return s.store.RecentDetections(req.Limit), nil
}

// AlertHistory returns the newest req.Limit entries of the alert history in
// chronological order, with their current status.
func (s *Service) AlertHistory(req HistoryRequest) ([]models.Alert, error) {
	if err := check(&req); err != nil {
		return nil, err
	}
	return s.store.RecentAlerts(req.Limit), nil
}

// paginationFields are the request fields whose failures are query errors;
// anything else is a filter error.
var paginationFields = []string{"limit", "offset"}

func check(req interface{}) error {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return nil
	}
	kind := ErrInvalidFilter
	if verr.HasField(paginationFields...) {
		kind = ErrInvalidQuery
	}
	return &Error{Kind: kind, Validation: verr}
}
