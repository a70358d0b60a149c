// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/models"
	ws "github.com/tomtom215/threathub/internal/websocket"
)

// clientIDParam lets a reconnecting dashboard ask for its previous id.
const clientIDParam = "client_id"

// WebSocket upgrades to the live channel. The initial envelope is queued
// during the handshake, so it always precedes the first broadcast alert.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).ServiceUnavailable("live channel unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, ws.ClientConfig{
		InboundRate:  h.config.Hub.InboundRate,
		InboundBurst: h.config.Hub.InboundBurst,
	})

	id, err := h.hub.Connect(r.URL.Query().Get(clientIDParam), func() (ws.Subscriber, error) {
		initial, err := ws.NewInitialMessage(h.initialAlerts(), h.aggregator.Summary())
		if err != nil {
			return nil, err
		}
		if err := client.Send(context.Background(), initial); err != nil {
			return nil, err
		}
		return client, nil
	})
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket handshake failed")
		client.Close()
		_ = conn.Close()
		return
	}

	client.Start(id)
}

// initialAlerts is the head of the ledger, newest first.
func (h *Handler) initialAlerts() []models.Alert {
	return h.store.List(models.AlertFilter{}, 0, h.config.Hub.InitialAlerts)
}
