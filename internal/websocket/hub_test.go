// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package websocket

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/tunecast/tunecast/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
}

// newBareClient builds a client without a network connection, for driving
// the hub directly.
func newBareClient() *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		send: make(chan Message, sendBufferSize),
	}
}

// recv pops one queued message or fails the test.
func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatal("expected a queued message")
		return Message{}
	}
}

func TestGenerateSuggestions(t *testing.T) {
	t.Parallel()

	results := GenerateSuggestions("abcdef")
	if len(results) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(results))
	}

	for i, r := range results {
		wantID := fmt.Sprintf("abc_%d", i)
		if r.VideoID != wantID {
			t.Errorf("result %d: expected video id %q, got %q", i, wantID, r.VideoID)
		}
		wantTitle := fmt.Sprintf("abcdef song %d", i+1)
		if r.Title != wantTitle {
			t.Errorf("result %d: expected title %q, got %q", i, wantTitle, r.Title)
		}
		wantThumb := fmt.Sprintf("https://i.ytimg.com/vi/%s/default.jpg", wantID)
		if r.Thumbnail != wantThumb {
			t.Errorf("result %d: expected thumbnail %q, got %q", i, wantThumb, r.Thumbnail)
		}
	}
}

func TestGenerateSuggestionsShortQuery(t *testing.T) {
	t.Parallel()

	results := GenerateSuggestions("ab")
	if len(results) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(results))
	}
	if !strings.HasPrefix(results[0].VideoID, "ab_") {
		t.Fatalf("short queries keep their full text as prefix, got %q", results[0].VideoID)
	}
}

func TestRegisterSendsWelcome(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := newBareClient()
	hub.handleRegister(c)

	if hub.GetClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.GetClientCount())
	}

	msg := recv(t, c)
	if msg.Type != MessageTypeConnected {
		t.Fatalf("expected %q message, got %q", MessageTypeConnected, msg.Type)
	}
	data, ok := msg.Data.(TextData)
	if !ok {
		t.Fatalf("unexpected payload type %T", msg.Data)
	}
	if data.Message != WelcomeMessage {
		t.Fatalf("unexpected welcome text %q", data.Message)
	}
}

func TestJoinRoomBroadcastsToWholeRoom(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	alice := newBareClient()
	bob := newBareClient()
	hub.handleRegister(alice)
	hub.handleRegister(bob)
	recv(t, alice) // welcome
	recv(t, bob)

	hub.JoinRoom(alice, "jazz", "alice")
	msg := recv(t, alice)
	if msg.Type != MessageTypeRoomJoined {
		t.Fatalf("expected %q, got %q", MessageTypeRoomJoined, msg.Type)
	}

	hub.JoinRoom(bob, "jazz", "bob")

	// Both members see bob's join, including bob.
	for _, c := range []*Client{alice, bob} {
		msg := recv(t, c)
		data, ok := msg.Data.(RoomEventData)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Data)
		}
		if data.Room != "jazz" || data.Username != "bob" {
			t.Fatalf("unexpected join payload %+v", data)
		}
	}

	if hub.RoomSize("jazz") != 2 {
		t.Fatalf("expected room size 2, got %d", hub.RoomSize("jazz"))
	}
}

func TestJoinRoomDefaults(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := newBareClient()
	hub.handleRegister(c)
	recv(t, c)

	hub.JoinRoom(c, "", "")
	msg := recv(t, c)
	data := msg.Data.(RoomEventData)
	if data.Room != DefaultRoom {
		t.Errorf("expected default room %q, got %q", DefaultRoom, data.Room)
	}
	if data.Username != AnonymousName {
		t.Errorf("expected anonymous username, got %q", data.Username)
	}
}

func TestLeaveRoomNotifiesBeforeRemoval(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	alice := newBareClient()
	bob := newBareClient()
	hub.handleRegister(alice)
	hub.handleRegister(bob)
	recv(t, alice)
	recv(t, bob)

	hub.JoinRoom(alice, "jazz", "alice")
	hub.JoinRoom(bob, "jazz", "bob")
	recv(t, alice)
	recv(t, alice)
	recv(t, bob)

	hub.LeaveRoom(bob, "jazz")

	// The departing member still receives its own leave notice.
	bobMsg := recv(t, bob)
	if bobMsg.Type != MessageTypeRoomLeft {
		t.Fatalf("expected %q, got %q", MessageTypeRoomLeft, bobMsg.Type)
	}
	data := recv(t, alice).Data.(RoomEventData)
	if data.Username != "bob" {
		t.Fatalf("expected departure under last-known name, got %q", data.Username)
	}

	if hub.RoomSize("jazz") != 1 {
		t.Fatalf("expected room size 1, got %d", hub.RoomSize("jazz"))
	}
}

func TestLeaveRoomUnknownClientIsAnonymous(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	member := newBareClient()
	stranger := newBareClient()
	hub.handleRegister(member)
	hub.handleRegister(stranger)
	recv(t, member)
	recv(t, stranger)

	hub.JoinRoom(member, "jazz", "alice")
	recv(t, member)

	// The stranger never joined and has no recorded name.
	hub.LeaveRoom(stranger, "jazz")
	data := recv(t, member).Data.(RoomEventData)
	if data.Username != AnonymousName {
		t.Fatalf("expected anonymous departure, got %q", data.Username)
	}
}

func TestSuggestionUpdateBroadcastsBatch(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	alice := newBareClient()
	bob := newBareClient()
	hub.handleRegister(alice)
	hub.handleRegister(bob)
	recv(t, alice)
	recv(t, bob)

	hub.JoinRoom(alice, "pop", "alice")
	hub.JoinRoom(bob, "pop", "bob")
	recv(t, alice)
	recv(t, alice)
	recv(t, bob)

	hub.SuggestionUpdate("beatles", "pop")

	for _, c := range []*Client{alice, bob} {
		msg := recv(t, c)
		if msg.Type != MessageTypeSuggestions {
			t.Fatalf("expected %q, got %q", MessageTypeSuggestions, msg.Type)
		}
		data, ok := msg.Data.(SuggestionsData)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Data)
		}
		if data.Query != "beatles" {
			t.Errorf("expected query echoed, got %q", data.Query)
		}
		if len(data.Results) != 5 {
			t.Errorf("expected 5 results in one message, got %d", len(data.Results))
		}
	}

	if got := hub.Metrics()["events_received"]; got != 1 {
		t.Fatalf("expected 1 received event, got %d", got)
	}
}

func TestBroadcastMessageScopedToRoom(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	inRoom := newBareClient()
	outside := newBareClient()
	hub.handleRegister(inRoom)
	hub.handleRegister(outside)
	recv(t, inRoom)
	recv(t, outside)

	hub.JoinRoom(inRoom, "jazz", "alice")
	hub.JoinRoom(outside, "rock", "bob")
	recv(t, inRoom)
	recv(t, outside)

	hub.BroadcastMessage("hello jazz", "jazz")

	msg := recv(t, inRoom)
	if msg.Type != MessageTypeBroadcast {
		t.Fatalf("expected %q, got %q", MessageTypeBroadcast, msg.Type)
	}
	if msg.Data.(TextData).Message != "hello jazz" {
		t.Fatalf("unexpected broadcast payload %+v", msg.Data)
	}

	select {
	case msg := <-outside.send:
		t.Fatalf("message leaked to another room: %+v", msg)
	default:
	}
}

func TestBroadcastDuringDisconnect(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	members := make([]*Client, 0, 64)
	for i := 0; i < 64; i++ {
		c := newBareClient()
		hub.handleRegister(c)
		recv(t, c)
		hub.JoinRoom(c, "busy", "user")
		members = append(members, c)
	}

	// Hammer the room while every member disconnects. A send on a closed
	// channel would panic the broadcasting goroutine.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.BroadcastMessage("ping", "busy")
			}
		}
	}()

	for _, c := range members {
		hub.handleUnregister(c)
	}
	close(stop)
	wg.Wait()

	if hub.GetClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.GetClientCount())
	}
	if hub.RoomSize("busy") != 0 {
		t.Fatalf("expected empty room, got %d members", hub.RoomSize("busy"))
	}
}

func TestUnregisterCleansUp(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	c := newBareClient()
	hub.handleRegister(c)
	recv(t, c)

	hub.JoinRoom(c, "jazz", "alice")
	recv(t, c)

	hub.handleUnregister(c)
	if hub.GetClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.GetClientCount())
	}
	if hub.RoomSize("jazz") != 0 {
		t.Fatalf("expected empty room, got %d members", hub.RoomSize("jazz"))
	}

	if _, open := <-c.send; open {
		t.Fatal("expected send channel closed")
	}

	// A second unregister for the same client is a no-op.
	hub.handleUnregister(c)

	m := hub.Metrics()
	if m["connections"] != 1 || m["disconnections"] != 1 {
		t.Fatalf("unexpected counters %v", m)
	}
}
