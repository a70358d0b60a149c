// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// fakeSubscriber records payloads and can be told to fail or block.
type fakeSubscriber struct {
	mu       sync.Mutex
	received [][]byte
	fail     bool
	block    bool
	onSend   func()
	closed   atomic.Bool
}

func (f *fakeSubscriber) Send(ctx context.Context, payload []byte) error {
	if f.onSend != nil {
		f.onSend()
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.fail {
		return errors.New("broken pipe")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, payload)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.closed.Store(true)
}

func (f *fakeSubscriber) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.received))
	for i, p := range f.received {
		out[i] = string(p)
	}
	return out
}

func handshakeWith(sub Subscriber) HandshakeFunc {
	return func() (Subscriber, error) { return sub, nil }
}

func connect(t *testing.T, hub *Hub, id string, sub Subscriber) string {
	t.Helper()
	got, err := hub.Connect(id, handshakeWith(sub))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return got
}

func TestConnectUsesRequestedIDWhenFree(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	if id := connect(t, hub, "dashboard-1", &fakeSubscriber{}); id != "dashboard-1" {
		t.Errorf("Expected requested id, got %q", id)
	}
	second := connect(t, hub, "dashboard-1", &fakeSubscriber{})
	if second == "dashboard-1" || second == "" {
		t.Errorf("Expected generated id for taken request, got %q", second)
	}
	if generated := connect(t, hub, "", &fakeSubscriber{}); generated == "" {
		t.Error("Expected generated id")
	}

	if hub.GetClientCount() != 3 {
		t.Errorf("Expected 3 clients, got %d", hub.GetClientCount())
	}
	if got := hub.Stats().TotalConnections; got != 3 {
		t.Errorf("Expected total_connections 3, got %d", got)
	}
}

func TestConnectHandshakeFailureRegistersNothing(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	id, err := hub.Connect("x", func() (Subscriber, error) {
		return nil, errors.New("bad upgrade")
	})

	var hsErr *HandshakeError
	if !errors.As(err, &hsErr) {
		t.Fatalf("Expected HandshakeError, got %v", err)
	}
	if id != "" {
		t.Errorf("Expected no id, got %q", id)
	}
	stats := hub.Stats()
	if stats.Errors != 1 || stats.TotalConnections != 0 {
		t.Errorf("Expected errors=1 connections=0, got %+v", stats)
	}
	if hub.GetClientCount() != 0 {
		t.Error("Expected empty registry")
	}

	if _, err := hub.Connect("", nil); !errors.Is(err, ErrNoHandshake) {
		t.Errorf("Expected ErrNoHandshake, got %v", err)
	}
}

func TestDisconnectUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	connect(t, hub, "a", &fakeSubscriber{})
	before := hub.Stats()

	if hub.Disconnect("does-not-exist") {
		t.Error("Expected Disconnect to report no removal")
	}
	if hub.Stats() != before {
		t.Errorf("Expected stats unchanged, got %+v want %+v", hub.Stats(), before)
	}
	if hub.GetClientCount() != 1 {
		t.Error("Expected registry unchanged")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	sub := &fakeSubscriber{}
	id := connect(t, hub, "", sub)

	if !hub.Disconnect(id) {
		t.Error("Expected first Disconnect to remove")
	}
	if hub.Disconnect(id) {
		t.Error("Expected second Disconnect to be a no-op")
	}
	if got := hub.Stats().TotalDisconnections; got != 1 {
		t.Errorf("Expected 1 disconnection, got %d", got)
	}
	if !sub.closed.Load() {
		t.Error("Expected subscriber to be closed")
	}
}

func TestBroadcastPrunesFailedSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{SendTimeout: 50 * time.Millisecond})
	subs := []*fakeSubscriber{{}, {fail: true}, {}, {block: true}, {}}
	for i, s := range subs {
		connect(t, hub, fmt.Sprintf("s%d", i), s)
	}
	before := hub.Stats()

	delivered := hub.Broadcast(context.Background(), []byte(`{"type":"alert"}`))
	if delivered != 3 {
		t.Errorf("Expected 3 remaining subscribers, got %d", delivered)
	}
	if hub.GetClientCount() != 3 {
		t.Errorf("Expected 3 registered subscribers, got %d", hub.GetClientCount())
	}

	after := hub.Stats()
	if after.Errors-before.Errors != 2 {
		t.Errorf("Expected errors +2, got %+d", after.Errors-before.Errors)
	}
	if after.TotalDisconnections-before.TotalDisconnections != 2 {
		t.Errorf("Expected disconnections +2, got %+d", after.TotalDisconnections-before.TotalDisconnections)
	}
	if after.MessagesSent-before.MessagesSent != 1 {
		t.Errorf("Expected messages_sent +1, got %+d", after.MessagesSent-before.MessagesSent)
	}
	if !subs[1].closed.Load() || !subs[3].closed.Load() {
		t.Error("Expected failed subscribers to be closed")
	}
	for _, i := range []int{0, 2, 4} {
		if got := len(subs[i].messages()); got != 1 {
			t.Errorf("subscriber %d: expected 1 message, got %d", i, got)
		}
	}
}

func TestStaleDisconnectKeepsReconnectedSubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	stale := &fakeSubscriber{fail: true}
	connect(t, hub, "dash", stale)

	if got := hub.Broadcast(context.Background(), []byte("one")); got != 0 {
		t.Errorf("Expected failed subscriber to be pruned, got %d remaining", got)
	}

	fresh := &fakeSubscriber{}
	if id := connect(t, hub, "dash", fresh); id != "dash" {
		t.Fatalf("Expected reconnect to reuse id dash, got %q", id)
	}

	// The pruned transport's read pump exits late and unregisters itself.
	if hub.disconnectSubscriber("dash", stale) {
		t.Error("Expected stale cleanup to leave the new subscriber alone")
	}
	if hub.GetClientCount() != 1 {
		t.Errorf("Expected 1 registered subscriber, got %d", hub.GetClientCount())
	}
	if fresh.closed.Load() {
		t.Error("Expected reconnected subscriber to stay open")
	}
	if got := hub.Broadcast(context.Background(), []byte("two")); got != 1 {
		t.Errorf("Expected reconnected subscriber to receive, got %d", got)
	}

	if !hub.disconnectSubscriber("dash", fresh) {
		t.Error("Expected owner cleanup to remove the subscriber")
	}
	if got := hub.Stats().TotalDisconnections; got != 2 {
		t.Errorf("Expected 2 disconnections, got %d", got)
	}
}

func TestBroadcastSkipsSubscribersDisconnectedMidBroadcast(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{SendTimeout: 50 * time.Millisecond})
	var once sync.Once
	leaving := &fakeSubscriber{}
	leaving.onSend = func() {
		once.Do(func() { hub.Disconnect("leaving") })
	}
	connect(t, hub, "leaving", leaving)
	connect(t, hub, "ok", &fakeSubscriber{})
	connect(t, hub, "bad", &fakeSubscriber{fail: true})

	if got := hub.Broadcast(context.Background(), []byte("x")); got != 1 {
		t.Errorf("Expected 1 remaining subscriber, got %d", got)
	}
	if hub.GetClientCount() != 1 {
		t.Errorf("Expected 1 registered subscriber, got %d", hub.GetClientCount())
	}
	if got := hub.Stats().TotalDisconnections; got != 2 {
		t.Errorf("Expected 2 disconnections, got %d", got)
	}
}

func TestBroadcastAfterDisconnectDeliversToNobody(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	sub := &fakeSubscriber{}
	id := connect(t, hub, "", sub)

	if got := hub.Broadcast(context.Background(), []byte("one")); got != 1 {
		t.Errorf("Expected first broadcast to reach 1, got %d", got)
	}
	hub.Disconnect(id)
	if got := hub.Broadcast(context.Background(), []byte("two")); got != 0 {
		t.Errorf("Expected second broadcast to reach 0, got %d", got)
	}
	if msgs := sub.messages(); len(msgs) != 1 || msgs[0] != "one" {
		t.Errorf("Expected only first message, got %v", msgs)
	}
	if got := hub.Stats().MessagesSent; got != 2 {
		t.Errorf("Expected messages_sent 2, got %d", got)
	}
}

func TestBroadcastSlowSubscriberDoesNotDelayOthers(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{SendTimeout: 100 * time.Millisecond})
	blockers := 5
	for i := 0; i < blockers; i++ {
		connect(t, hub, "", &fakeSubscriber{block: true})
	}
	healthy := &fakeSubscriber{}
	connect(t, hub, "", healthy)

	start := time.Now()
	got := hub.Broadcast(context.Background(), []byte("x"))
	elapsed := time.Since(start)

	if got != 1 {
		t.Errorf("Expected 1 remaining subscriber, got %d", got)
	}
	// Sends run concurrently: total time is one timeout, not five.
	if elapsed > 400*time.Millisecond {
		t.Errorf("Expected concurrent sends, broadcast took %v", elapsed)
	}
}

func TestBroadcastPreservesPerSubscriberOrder(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	sub := &fakeSubscriber{}
	connect(t, hub, "", sub)

	for i := 0; i < 50; i++ {
		hub.Broadcast(context.Background(), []byte(fmt.Sprintf("%02d", i)))
	}
	msgs := sub.messages()
	for i, m := range msgs {
		if m != fmt.Sprintf("%02d", i) {
			t.Fatalf("Expected message %02d at position %d, got %s", i, i, m)
		}
	}
}

func TestConcurrentConnectDisconnectBroadcast(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{SendTimeout: 20 * time.Millisecond})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id, err := hub.Connect("", handshakeWith(&fakeSubscriber{}))
				if err != nil {
					t.Errorf("Connect() error = %v", err)
					return
				}
				hub.Disconnect(id)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				hub.Broadcast(context.Background(), []byte("tick"))
			}
		}()
	}
	wg.Wait()

	stats := hub.Stats()
	if stats.TotalConnections != 200 || stats.TotalDisconnections != 200 {
		t.Errorf("Expected 200/200, got %+v", stats)
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("Expected empty registry, got %d", hub.GetClientCount())
	}
}

func TestBroadcastAlertEnvelope(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	sub := &fakeSubscriber{}
	connect(t, hub, "", sub)

	alert := &models.Alert{
		ID:              "a-1",
		ThreatType:      "Signature Match",
		Severity:        models.SeverityHigh,
		Status:          models.StatusOpen,
		DeviceID:        "signature-detector",
		DetectionMethod: models.MethodSignature,
		Confidence:      0.91,
		Metrics:         map[string]any{"rule": "EICAR"},
	}
	if _, err := hub.BroadcastAlert(context.Background(), alert); err != nil {
		t.Fatalf("BroadcastAlert() error = %v", err)
	}

	var env struct {
		Type string       `json:"type"`
		Data models.Alert `json:"data"`
	}
	msgs := sub.messages()
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	if err := json.Unmarshal([]byte(msgs[0]), &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if env.Type != MessageTypeAlert || env.Data.ID != "a-1" || env.Data.Metrics["rule"] != "EICAR" {
		t.Errorf("Unexpected envelope: %+v", env)
	}
}

func TestRunWithContextClosesAllClients(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{})
	subs := []*fakeSubscriber{{}, {}}
	for _, s := range subs {
		connect(t, hub, "", s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not return")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("Expected no clients after shutdown, got %d", hub.GetClientCount())
	}
	for i, s := range subs {
		if !s.closed.Load() {
			t.Errorf("subscriber %d not closed", i)
		}
	}
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("Expected %s, got %s", ShutdownReasonContextCanceled, got)
	}

	expired, cancel2 := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel2()
	<-expired.Done()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("Expected %s, got %s", ShutdownReasonContextDeadline, got)
	}
}
