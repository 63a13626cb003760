// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package models defines the wire shapes shared by the HTTP API, the
// websocket hub, and the search pipeline.
package models

import (
	"github.com/goccy/go-json"
)

// SongResult is the normalized shape every search backend and the fallback
// catalog produce. VideoID is guaranteed non-empty for records sourced from a
// live provider response; fallback records may carry an empty ID only when the
// catalog entry itself is incomplete.
type SongResult struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoID     string `json:"video_id"`
	Thumbnail   string `json:"thumbnail"`
}

// PlaylistResult is the normalized playlist shape.
type PlaylistResult struct {
	Name       string `json:"name"`
	PlaylistID string `json:"playlist_id"`
}

// WebhookEvent is the payload accepted by POST /webhook.
//
// The data key must be present in the payload; an explicit null or an empty
// object both count as present. Only a missing key is a validation failure,
// so Data is kept raw: nil means the key was absent.
type WebhookEvent struct {
	EventType string          `json:"event_type" validate:"required"`
	Data      json.RawMessage `json:"data"`
}

// Known webhook event types. Anything else is dispatched to the generic
// handler.
const (
	EventTypeSongUpdate     = "song_update"
	EventTypePlaylistUpdate = "playlist_update"
)
