// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tunecast/tunecast/internal/config"
	"github.com/tunecast/tunecast/internal/middleware"
)

// NewRouter assembles the route table and the shared middleware stack.
func NewRouter(cfg config.ServerConfig, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.PrometheusMetrics)

	r.Get("/suggest", h.Suggest)
	r.Post("/webhook", h.Webhook)
	r.Get("/health", h.Health)
	r.Get("/ws", h.WebSocket)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "Resource not found",
			"path":  r.URL.Path,
		})
	})

	return r
}
