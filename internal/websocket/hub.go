// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/metrics"
	"github.com/tomtom215/threathub/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DefaultSendTimeout bounds a single subscriber send during a broadcast.
const DefaultSendTimeout = 250 * time.Millisecond

// Subscriber is one live recipient owned by the Hub.
type Subscriber interface {
	// Send delivers payload or fails once ctx is done.
	Send(ctx context.Context, payload []byte) error
	// Close releases the transport. It must be idempotent.
	Close()
}

// HandshakeFunc establishes the transport for a new subscriber.
// Anything the subscriber must receive before its first broadcast (such as
// the initial snapshot) should be queued here, before registration.
type HandshakeFunc func() (Subscriber, error)

// HandshakeError wraps a failed connection setup.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("websocket handshake failed: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// ErrNoHandshake is returned when Connect is called without a handshake.
var ErrNoHandshake = errors.New("no handshake function")

// Config configures a Hub.
type Config struct {
	SendTimeout time.Duration
}

type entry struct {
	id          string
	sub         Subscriber
	connectedAt time.Time
}

// ConnectionInfo describes a registered subscriber.
type ConnectionInfo struct {
	ID          string    `json:"connection_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Hub maintains the registry of live subscribers and fans messages out to them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*entry

	// broadcastMu serializes Broadcast so per-subscriber order matches call order.
	broadcastMu sync.Mutex
	sendTimeout time.Duration

	totalConnections    atomic.Int64
	totalDisconnections atomic.Int64
	messagesSent        atomic.Int64
	errors              atomic.Int64
}

// NewHub creates a Hub.
func NewHub(cfg Config) *Hub {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	return &Hub{
		subscribers: make(map[string]*entry),
		sendTimeout: cfg.SendTimeout,
	}
}

// Connect runs handshake and registers the resulting subscriber.
// requestedID is used when it is non-empty and free; otherwise an id is
// generated. A failed handshake registers nothing, counts one error, and
// returns a *HandshakeError.
func (h *Hub) Connect(requestedID string, handshake HandshakeFunc) (string, error) {
	if handshake == nil {
		return "", ErrNoHandshake
	}

	sub, err := handshake()
	if err != nil {
		h.errors.Add(1)
		metrics.WSErrors.WithLabelValues("handshake").Inc()
		return "", &HandshakeError{Err: err}
	}

	h.mu.Lock()
	id := requestedID
	if _, taken := h.subscribers[id]; taken {
		id = ""
	}
	for id == "" {
		candidate := uuid.New().String()
		if _, clash := h.subscribers[candidate]; !clash {
			id = candidate
		}
	}
	h.subscribers[id] = &entry{id: id, sub: sub, connectedAt: time.Now().UTC()}
	count := len(h.subscribers)
	h.mu.Unlock()

	h.totalConnections.Add(1)
	metrics.WSConnectionsTotal.Inc()
	metrics.WSConnections.Set(float64(count))

	logging.Info().
		Str("connection_id", id).
		Int("total_clients", count).
		Msg("websocket client connected")
	return id, nil
}

// Disconnect removes a subscriber. Unknown ids are a no-op.
// It reports whether a subscriber was actually removed.
func (h *Hub) Disconnect(id string) bool {
	return h.disconnect(id, nil)
}

// disconnectSubscriber removes id only while it still maps to sub, so a
// stale transport cannot tear down a newer subscriber that reused its id.
func (h *Hub) disconnectSubscriber(id string, sub Subscriber) bool {
	if sub == nil {
		return false
	}
	return h.disconnect(id, sub)
}

func (h *Hub) disconnect(id string, sub Subscriber) bool {
	h.mu.Lock()
	e, ok := h.subscribers[id]
	if ok && sub != nil && e.sub != sub {
		ok = false
	}
	if ok {
		delete(h.subscribers, id)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return false
	}
	h.recordRemovals(1, count)
	e.sub.Close()
	logging.Info().
		Str("connection_id", id).
		Int("total_clients", count).
		Msg("websocket client disconnected")
	return true
}

// prune deletes every failed entry in one registry mutation and returns the
// removed entries plus how many non-failed snapshot members are still
// registered.
func (h *Hub) prune(targets []*entry, failed []error) (removed []*entry, remaining int) {
	h.mu.Lock()
	for i, e := range targets {
		current, ok := h.subscribers[e.id]
		registered := ok && current == e
		switch {
		case failed[i] != nil && registered:
			delete(h.subscribers, e.id)
			removed = append(removed, e)
		case failed[i] == nil && registered:
			remaining++
		}
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if len(removed) > 0 {
		h.recordRemovals(len(removed), count)
	}
	return removed, remaining
}

func (h *Hub) recordRemovals(n, count int) {
	h.totalDisconnections.Add(int64(n))
	metrics.WSDisconnectionsTotal.Add(float64(n))
	metrics.WSConnections.Set(float64(count))
}

// snapshot returns the current registry in connection order.
func (h *Hub) snapshot() []*entry {
	h.mu.RLock()
	entries := make([]*entry, 0, len(h.subscribers))
	for _, e := range h.subscribers {
		entries = append(entries, e)
	}
	h.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].connectedAt.Equal(entries[j].connectedAt) {
			return entries[i].id < entries[j].id
		}
		return entries[i].connectedAt.Before(entries[j].connectedAt)
	})
	return entries
}

// Broadcast delivers payload to every subscriber registered when the call
// starts. Sends run concurrently, each bounded by the send timeout. Failed
// subscribers are pruned after all sends finish. It returns how many
// snapshot members remain connected.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) int {
	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	start := time.Now()
	targets := h.snapshot()
	h.messagesSent.Add(1)

	failed := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, e := range targets {
		wg.Add(1)
		go func(i int, e *entry) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()
			failed[i] = e.sub.Send(sendCtx, payload)
		}(i, e)
	}
	wg.Wait()

	failures := 0
	for i, err := range failed {
		if err == nil {
			continue
		}
		failures++
		h.errors.Add(1)
		logging.Warn().
			Err(err).
			Str("connection_id", targets[i].id).
			Msg("broadcast send failed, pruning subscriber")
	}

	var remaining int
	if failures > 0 {
		var removed []*entry
		removed, remaining = h.prune(targets, failed)
		for _, e := range removed {
			e.sub.Close()
		}
	} else {
		remaining = h.stillRegistered(targets)
	}

	metrics.RecordBroadcast(time.Since(start), failures)
	return remaining
}

// stillRegistered counts snapshot members that are still in the registry.
func (h *Hub) stillRegistered(targets []*entry) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, e := range targets {
		if current, ok := h.subscribers[e.id]; ok && current == e {
			n++
		}
	}
	return n
}

// BroadcastJSON wraps data in a typed envelope and broadcasts it.
func (h *Hub) BroadcastJSON(ctx context.Context, messageType string, data interface{}) (int, error) {
	payload, err := MarshalMessage(Message{Type: messageType, Data: data})
	if err != nil {
		return 0, fmt.Errorf("marshal %s message: %w", messageType, err)
	}
	return h.Broadcast(ctx, payload), nil
}

// BroadcastAlert pushes one alert envelope.
func (h *Hub) BroadcastAlert(ctx context.Context, a *models.Alert) (int, error) {
	payload, err := NewAlertMessage(a)
	if err != nil {
		return 0, fmt.Errorf("marshal alert %s: %w", a.ID, err)
	}
	delivered := h.Broadcast(ctx, payload)
	logging.Ctx(ctx).Debug().
		Str("alert_id", a.ID).
		Int("clients", delivered).
		Msg("broadcast alert")
	return delivered, nil
}

// GetClientCount returns the number of registered subscribers.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Connections lists registered subscribers in connection order.
func (h *Hub) Connections() []ConnectionInfo {
	entries := h.snapshot()
	out := make([]ConnectionInfo, len(entries))
	for i, e := range entries {
		out[i] = ConnectionInfo{ID: e.id, ConnectedAt: e.connectedAt}
	}
	return out
}

// Stats returns the process-lifetime counters.
func (h *Hub) Stats() models.HubStats {
	return models.HubStats{
		TotalConnections:    h.totalConnections.Load(),
		TotalDisconnections: h.totalDisconnections.Load(),
		MessagesSent:        h.messagesSent.Load(),
		Errors:              h.errors.Load(),
	}
}

// RunWithContext blocks until ctx is canceled, then disconnects every
// subscriber. It is meant to run under the supervisor.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()

	clientCount := h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
	return ctx.Err()
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients disconnects every subscriber in connection order.
func (h *Hub) closeAllClients() int {
	entries := h.snapshot()
	closed := 0
	for _, e := range entries {
		if h.Disconnect(e.id) {
			closed++
		}
	}
	return closed
}
