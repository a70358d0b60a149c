// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package websocket

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/threathub/internal/models"
)

// Message types for the live channel
const (
	MessageTypeInitial = "initial"
	MessageTypeAlert   = "alert"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is the generic server envelope.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// InitialMessage is pushed once, immediately after a subscriber connects.
type InitialMessage struct {
	Type    string                  `json:"type"`
	Alerts  []models.Alert          `json:"alerts"`
	Summary models.DashboardSummary `json:"summary"`
}

// PongMessage answers a client ping.
type PongMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// inboundMessage is the only shape accepted from clients.
type inboundMessage struct {
	Type string `json:"type"`
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// NewAlertMessage encodes an alert envelope.
func NewAlertMessage(a *models.Alert) ([]byte, error) {
	return json.Marshal(Message{Type: MessageTypeAlert, Data: a})
}

// NewInitialMessage encodes the connect-time snapshot.
func NewInitialMessage(alerts []models.Alert, summary models.DashboardSummary) ([]byte, error) {
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return json.Marshal(InitialMessage{Type: MessageTypeInitial, Alerts: alerts, Summary: summary})
}

// NewPongMessage encodes a pong carrying the server time.
func NewPongMessage(now time.Time) ([]byte, error) {
	return json.Marshal(PongMessage{Type: MessageTypePong, Timestamp: now.UTC().Format(time.RFC3339)})
}
