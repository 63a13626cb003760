// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package websocket implements the realtime broadcaster: a hub tracking
// connections and room membership, and per-connection clients pumping
// messages over gorilla/websocket.
package websocket

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/metrics"
	"github.com/tunecast/tunecast/internal/models"
)

// Server-to-client message types.
const (
	MessageTypeConnected   = "connected"
	MessageTypeRoomJoined  = "room_joined"
	MessageTypeRoomLeft    = "room_left"
	MessageTypeSuggestions = "suggestions"
	MessageTypeBroadcast   = "broadcast"
)

// Client-to-server event types.
const (
	EventTypeJoinRoom         = "join_room"
	EventTypeLeaveRoom        = "leave_room"
	EventTypeSuggestionUpdate = "suggestion_update"
)

const (
	// DefaultRoom receives events that name no room.
	DefaultRoom = "global"

	// AnonymousName is used for connections that never set a display name.
	AnonymousName = "anonymous"

	// WelcomeMessage is sent to each connection on connect.
	WelcomeMessage = "Welcome to Tunecast Auto Suggestor"

	syntheticSuggestionCount = 5
)

// Message is a server-to-client websocket frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event is a client-to-server websocket frame.
type Event struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Username string `json:"username,omitempty"`
	Query    string `json:"query,omitempty"`
	Message  string `json:"message,omitempty"`
}

// RoomEventData is the payload of room_joined and room_left messages.
type RoomEventData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// SuggestionsData is the payload of suggestions messages.
type SuggestionsData struct {
	Query   string              `json:"query"`
	Results []models.SongResult `json:"results"`
}

// TextData is the payload of connected and broadcast messages.
type TextData struct {
	Message string `json:"message"`
}

// Hub maintains active clients, their display names, and room membership,
// and relays messages to rooms.
//
// Room state is mutex-guarded; client lifecycle flows through the Register
// and Unregister channels so connect/disconnect ordering stays consistent
// per connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	names   map[*Client]string

	Register   chan *Client
	Unregister chan *Client

	connections    atomic.Int64
	disconnections atomic.Int64
	eventsReceived atomic.Int64
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		names:      make(map[*Client]string),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run processes client lifecycle events until the process exits. Use
// RunWithContext for supervised operation.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		}
	}
}

// RunWithContext processes client lifecycle events until ctx is canceled,
// then closes all clients and returns ctx.Err(). Designed for suture
// supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			closed := h.closeAllClients()
			logging.Info().
				Str("component", "websocket-hub").
				Int("clients_closed", closed).
				Msg("websocket hub stopped")
			return ctx.Err()
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		}
	}
}

// handleRegister adds the connection and acknowledges it to the caller only.
func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.connections.Add(1)
	metrics.WSConnectionsTotal.Inc()
	metrics.WSActiveConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")

	welcome := Message{Type: MessageTypeConnected, Data: TextData{Message: WelcomeMessage}}
	select {
	case client.send <- welcome:
	default:
	}
}

// handleUnregister removes the connection, its display name, and all room
// memberships. Idempotent for already-removed clients.
func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	delete(h.names, client)
	for room, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	// The send channel is closed under the same lock the broadcast loop
	// holds, so no broadcast can send on it afterwards.
	close(client.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.disconnections.Add(1)
	metrics.WSDisconnectionsTotal.Inc()
	metrics.WSActiveConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// JoinRoom adds the connection to a room, records its display name, and
// notifies the whole room (including the joiner).
func (h *Hub) JoinRoom(client *Client, room, username string) {
	if room == "" {
		room = DefaultRoom
	}
	if username == "" {
		username = AnonymousName
	}

	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	h.names[client] = username
	h.mu.Unlock()

	logging.Info().Str("room", room).Str("username", username).Msg("client joined room")
	h.sendToRoom(room, Message{
		Type: MessageTypeRoomJoined,
		Data: RoomEventData{Room: room, Username: username},
	})
}

// LeaveRoom notifies the room with the connection's last-known display name
// and removes the membership. The name mapping itself survives until
// disconnect.
func (h *Hub) LeaveRoom(client *Client, room string) {
	if room == "" {
		room = DefaultRoom
	}

	h.mu.RLock()
	username, ok := h.names[client]
	h.mu.RUnlock()
	if !ok {
		username = AnonymousName
	}

	logging.Info().Str("room", room).Str("username", username).Msg("client left room")
	h.sendToRoom(room, Message{
		Type: MessageTypeRoomLeft,
		Data: RoomEventData{Room: room, Username: username},
	})

	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
}

// SuggestionUpdate synthesizes suggestions for the query locally and
// broadcasts the full batch to the room as a single message. This path never
// consults the external search provider or the cache.
func (h *Hub) SuggestionUpdate(query, room string) {
	if room == "" {
		room = DefaultRoom
	}

	h.eventsReceived.Add(1)
	metrics.WSEventsReceivedTotal.Inc()

	results := GenerateSuggestions(query)
	h.sendToRoom(room, Message{
		Type: MessageTypeSuggestions,
		Data: SuggestionsData{Query: query, Results: results},
	})
	logging.Debug().Str("query", query).Str("room", room).Msg("broadcasted suggestions")
}

// BroadcastMessage sends a plain text message to everyone in the room.
func (h *Hub) BroadcastMessage(message, room string) {
	if room == "" {
		room = DefaultRoom
	}
	h.sendToRoom(room, Message{Type: MessageTypeBroadcast, Data: TextData{Message: message}})
}

// GenerateSuggestions builds the synthetic suggestion batch for a query: five
// records keyed off the query text and an index.
func GenerateSuggestions(query string) []models.SongResult {
	prefix := query
	if runes := []rune(query); len(runes) > 3 {
		prefix = string(runes[:3])
	}

	results := make([]models.SongResult, 0, syntheticSuggestionCount)
	for i := 0; i < syntheticSuggestionCount; i++ {
		id := fmt.Sprintf("%s_%d", prefix, i)
		results = append(results, models.SongResult{
			Title:     fmt.Sprintf("%s song %d", query, i+1),
			VideoID:   id,
			Thumbnail: fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", id),
		})
	}
	return results
}

// sendToRoom delivers a message to every member of the room in client-ID
// order. The lock is held across the sends so a concurrent unregister cannot
// close a member's channel mid-broadcast; the sends are non-blocking, so a
// slow client drops the message rather than stalling the room.
func (h *Hub) sendToRoom(room string, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].id < members[j].id
	})

	for _, client := range members {
		select {
		case client.send <- message:
		default:
			logging.Warn().Uint64("client_id", client.id).Msg("dropping message for slow websocket client")
		}
	}
}

// closeAllClients tears down every connection, returning how many there were.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.rooms = make(map[string]map[*Client]bool)
	h.names = make(map[*Client]string)
	return count
}

// GetClientCount returns the number of registered clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of members in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Metrics returns a snapshot of hub counters.
func (h *Hub) Metrics() map[string]int64 {
	return map[string]int64{
		"connections":     h.connections.Load(),
		"disconnections":  h.disconnections.Load(),
		"events_received": h.eventsReceived.Load(),
	}
}
