// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tunecast/tunecast/internal/logging"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod is how often pings are sent. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum inbound frame size in bytes.
	maxMessageSize = 4096

	// sendBufferSize is the per-client outbound queue depth.
	sendBufferSize = 64
)

var clientIDCounter atomic.Uint64

// Client is one websocket connection. It decodes inbound events and
// dispatches them to the hub, and drains the hub's messages to the wire.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps an upgraded connection. The caller must register the client
// with the hub and then call Start.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBufferSize),
	}
}

// ID returns the client's hub-unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start launches the read and write pumps. It returns immediately; the pumps
// run until the connection drops.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes inbound events and dispatches them to the hub. On any read
// error the client unregisters itself and the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event Event
		if err := c.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		c.dispatch(event)
	}
}

// dispatch routes one inbound event. Unknown event types are logged and
// dropped; they never terminate the connection.
func (c *Client) dispatch(event Event) {
	switch event.Type {
	case EventTypeJoinRoom:
		c.hub.JoinRoom(c, event.Room, event.Username)
	case EventTypeLeaveRoom:
		c.hub.LeaveRoom(c, event.Room)
	case EventTypeSuggestionUpdate:
		c.hub.SuggestionUpdate(event.Query, event.Room)
	default:
		logging.Warn().Str("type", event.Type).Uint64("client_id", c.id).Msg("unknown websocket event type")
	}
}

// writePump drains the send channel to the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
