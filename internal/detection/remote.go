// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/metrics"
	"github.com/tomtom215/threathub/internal/models"
)

// errCallerCanceled marks calls abandoned by the caller's context.
var errCallerCanceled = errors.New("detection call canceled by caller")

// maxResponseBytes bounds a detector response body.
const maxResponseBytes = 4 << 20

// RemoteConfig describes an HTTP detection service.
type RemoteConfig struct {
	Method  models.DetectionMethod
	URL     string
	Timeout time.Duration
	Headers map[string]string
	Breaker BreakerConfig
}

// RemoteCollaborator POSTs the request bag as JSON to a detector service and
// decodes its verdict. Calls go through a circuit breaker so a failing
// detector is reported as unavailable instead of timing out every request.
type RemoteCollaborator struct {
	name    string
	url     string
	headers map[string]string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*models.DetectionResult]
}

// NewRemoteCollaborator validates cfg and builds the collaborator.
func NewRemoteCollaborator(cfg RemoteConfig) (*RemoteCollaborator, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse %s detector url: %w", cfg.Method, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s detector url must be http or https, got %q", cfg.Method, cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	name := "detector-" + string(cfg.Method)
	return &RemoteCollaborator{
		name:    name,
		url:     u.String(),
		headers: headers,
		client:  &http.Client{Timeout: cfg.Timeout},
		cb:      newBreaker(name, cfg.Breaker),
	}, nil
}

// Name returns the breaker name, also used in logs and metrics.
func (r *RemoteCollaborator) Name() string {
	return r.name
}

// Detect implements Collaborator.
func (r *RemoteCollaborator) Detect(ctx context.Context, req *Request) (*models.DetectionResult, error) {
	result, err := r.cb.Execute(func() (*models.DetectionResult, error) {
		return r.call(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(r.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", r.name).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: %s: %v", ErrCollaboratorUnavailable, r.name, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(float64(r.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(r.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(r.name).Set(0)
	return result, nil
}

func (r *RemoteCollaborator) call(ctx context.Context, req *Request) (*models.DetectionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal detection request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build detection request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", "ThreatHub/1.0")
	for k, v := range r.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", errCallerCanceled, err)
		}
		return nil, fmt.Errorf("call %s: %w", r.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", r.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("%s returned status %d: %s", r.name, resp.StatusCode, snippet)
	}

	var wire wireResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", r.name, err)
	}
	return wire.normalize(), nil
}

// wireResult accepts the canonical result plus the field names detector
// services commonly use for the same data.
type wireResult struct {
	models.DetectionResult
	AdvancedThreats []models.Threat `json:"advanced_threats"`
	Detected        *bool           `json:"detected"`
	Features        map[string]any  `json:"features"`
	Indicators      map[string]any  `json:"indicators"`
	Metrics         map[string]any  `json:"metrics"`
}

func (w *wireResult) normalize() *models.DetectionResult {
	r := w.DetectionResult
	if len(r.ThreatsDetected) == 0 && len(w.AdvancedThreats) > 0 {
		r.ThreatsDetected = w.AdvancedThreats
	}
	if w.Detected != nil && *w.Detected {
		r.IsThreat = true
	}
	if r.Details == nil {
		switch {
		case w.Features != nil:
			r.Details = w.Features
		case w.Indicators != nil:
			r.Details = w.Indicators
		case w.Metrics != nil:
			r.Details = w.Metrics
		}
	}
	return &r
}
