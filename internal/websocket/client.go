// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/threathub/internal/logging"
	"github.com/tomtom215/threathub/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// ErrClientClosed is returned by Send after the client has been closed.
var ErrClientClosed = errors.New("websocket client closed")

// ClientConfig tunes inbound handling for one connection.
type ClientConfig struct {
	// InboundRate is the sustained number of client messages per second
	// processed; excess messages are dropped. Zero disables the limit.
	InboundRate float64
	// InboundBurst is the limiter bucket size.
	InboundBurst int
}

// Client is the gorilla/websocket Subscriber. The hub only sees Send and
// Close; the pumps own the connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter

	id string
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, cfg ClientConfig) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	if cfg.InboundRate > 0 {
		burst := cfg.InboundBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.InboundRate), burst)
	}
	return c
}

// Send queues payload for the write pump. It fails when the queue stays
// full until ctx is done, or when the client is closed.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops both pumps. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Start launches the pumps for a registered connection id.
func (c *Client) Start(id string) {
	c.id = id
	go c.writePump()
	go c.readPump()
}

// readPump reads client messages until the connection fails, then
// unregisters this client from the hub if it still owns its id.
func (c *Client) readPump() {
	defer func() {
		c.hub.disconnectSubscriber(c.id, c)
		c.Close()
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Str("connection_id", c.id).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("connection_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()
		c.handleInbound(data)
	}
}

// handleInbound answers pings. Everything else is ignored.
func (c *Client) handleInbound(data []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		metrics.WSMessagesDropped.WithLabelValues("rate_limited").Inc()
		return
	}

	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.WSMessagesDropped.WithLabelValues("malformed").Inc()
		logging.Debug().Err(err).Str("connection_id", c.id).Msg("ignoring malformed client message")
		return
	}

	if msg.Type != MessageTypePing {
		metrics.WSMessagesDropped.WithLabelValues("unknown_type").Inc()
		return
	}

	pong, err := NewPongMessage(time.Now())
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode pong")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := c.Send(ctx, pong); err != nil {
		logging.Debug().Err(err).Str("connection_id", c.id).Msg("pong not queued")
	}
}

// writePump writes queued payloads and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write message")
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
