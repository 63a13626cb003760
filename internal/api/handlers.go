// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package api

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/goccy/go-json"

	"github.com/tunecast/tunecast/internal/fallback"
	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/models"
	"github.com/tunecast/tunecast/internal/suggest"
	"github.com/tunecast/tunecast/internal/webhook"
	ws "github.com/tunecast/tunecast/internal/websocket"
	"github.com/tunecast/tunecast/internal/youtube"
)

const healthCheckTimeout = 5 * time.Second

// Handler carries the collaborators the HTTP endpoints need.
type Handler struct {
	suggester *suggest.Suggester
	search    *youtube.Client
	fallback  *fallback.Provider
	ingestor  *webhook.Ingestor
	hub       *ws.Hub
	upgrader  gorillaws.Upgrader
	startedAt time.Time
}

// NewHandler wires the endpoint handlers to their collaborators.
func NewHandler(
	suggester *suggest.Suggester,
	search *youtube.Client,
	fb *fallback.Provider,
	ingestor *webhook.Ingestor,
	hub *ws.Hub,
) *Handler {
	return &Handler{
		suggester: suggester,
		search:    search,
		fallback:  fb,
		ingestor:  ingestor,
		hub:       hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS middleware layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		startedAt: time.Now(),
	}
}

// Suggest serves GET /suggest?q=... with a JSON array of suggestions. The
// endpoint always answers 200; degraded upstreams surface as fallback
// content, not errors.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := h.suggester.Handle(r.Context(), query)
	respondJSON(w, http.StatusOK, results)
}

// Webhook serves POST /webhook. Malformed or structurally invalid payloads
// get a 400; accepted events are queued for asynchronous processing and
// acknowledged with a 202 before any handler runs.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	h.ingestor.MarkReceived()

	var event models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.ingestor.MarkFailed()
		logging.Warn().Err(err).Msg("webhook payload is not a JSON object")
		respondError(w, models.NewValidationErrorMessage("payload", "request body must be a JSON object"))
		return
	}

	if verr := h.ingestor.Validate(event); verr != nil {
		h.ingestor.MarkFailed()
		logging.Warn().Str("field", verr.Field).Msg("webhook payload failed validation")
		respondError(w, verr)
		return
	}

	h.ingestor.Enqueue(event)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Health serves GET /health with component status and counters. The search
// probe runs with its own short timeout so a hung upstream cannot hang the
// health endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	searchHealthy := h.search.HealthCheck(ctx)
	status := "ok"
	if !searchHealthy {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"components": map[string]any{
			"search":    map[string]any{"healthy": searchHealthy, "metrics": h.search.Metrics()},
			"fallback":  h.fallback.Metrics(),
			"webhook":   h.ingestor.Metrics(),
			"websocket": h.hub.Metrics(),
		},
	})
}

// WebSocket serves GET /ws, upgrading the connection and handing it to the
// hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
