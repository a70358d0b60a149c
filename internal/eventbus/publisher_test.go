// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

//go:build nats

package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/threathub/internal/models"
)

func startEmbedded(t *testing.T) *EmbeddedServer {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = -1
	cfg.StoreDir = t.TempDir()

	srv, err := NewEmbeddedServer(cfg)
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	if !srv.IsRunning() {
		t.Fatal("Expected embedded server running")
	}
	return srv
}

func TestPublishAlertReachesSubscriber(t *testing.T) {
	srv := startEmbedded(t)

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer nc.Close()

	received := make(chan *natsgo.Msg, 1)
	sub, err := nc.ChanSubscribe("threathub.alerts.>", received)
	if err != nil {
		t.Fatalf("ChanSubscribe() error = %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()
	if err := nc.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	pub, err := NewPublisher(DefaultConfig(), srv.ClientURL())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer func() { _ = pub.Close() }()

	alert := &models.Alert{ID: "alert-42", ThreatType: "Phishing", Severity: models.SeverityHigh, DetectionMethod: models.MethodSocialEngineering}
	if err := pub.PublishAlert(context.Background(), alert); err != nil {
		t.Fatalf("PublishAlert() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg.Subject != "threathub.alerts.social_engineering" {
			t.Errorf("Expected method subject, got %q", msg.Subject)
		}
		got, err := DecodeAlert(msg.Data)
		if err != nil {
			t.Fatalf("DecodeAlert() error = %v", err)
		}
		if got.ID != "alert-42" || got.ThreatType != "Phishing" {
			t.Errorf("Unexpected alert %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for published alert")
	}
}

func TestPublishAfterClose(t *testing.T) {
	srv := startEmbedded(t)

	pub, err := NewPublisher(DefaultConfig(), srv.ClientURL())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}
	err = pub.PublishAlert(context.Background(), &models.Alert{ID: "x"})
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Expected ErrPublisherClosed, got %v", err)
	}
}
