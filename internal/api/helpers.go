// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package api exposes the HTTP surface: suggestion queries, webhook intake,
// the websocket upgrade endpoint, and health reporting.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/models"
)

// respondJSON writes payload as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError maps a pipeline error to its HTTP status and body. Validation
// messages are safe to echo and use the intake status/message shape;
// everything else gets a fixed string so upstream details never leak to
// clients.
func respondError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, verr.HTTPStatus(), map[string]string{
			"status":  "error",
			"message": verr.Message,
		})
		return
	}

	var serr *models.ExternalServiceError
	if errors.As(err, &serr) {
		respondJSON(w, serr.HTTPStatus(), map[string]string{"error": "Upstream service unavailable"})
		return
	}

	var perr *models.PipelineError
	if errors.As(err, &perr) {
		respondJSON(w, perr.HTTPStatus(), map[string]string{"error": "Internal server error"})
		return
	}

	respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}
