// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Command server runs the Tunecast suggestion backend: HTTP API, websocket
// rooms, and the webhook worker pool, all under one supervision tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tunecast/tunecast/internal/api"
	"github.com/tunecast/tunecast/internal/cache"
	"github.com/tunecast/tunecast/internal/config"
	"github.com/tunecast/tunecast/internal/fallback"
	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/suggest"
	"github.com/tunecast/tunecast/internal/supervisor"
	"github.com/tunecast/tunecast/internal/webhook"
	ws "github.com/tunecast/tunecast/internal/websocket"
	"github.com/tunecast/tunecast/internal/youtube"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("log_level", cfg.Logging.Level).
		Msg("starting tunecast server")

	if cfg.YouTube.APIKey == "" {
		logging.Warn().Msg("no YouTube API key configured, searches will fail over to fallback content")
	}

	store := cache.New()
	fb := fallback.New()
	search := youtube.New(cfg.YouTube)
	suggester := suggest.New(search, store, fb)
	ingestor := webhook.New(cfg.Webhook)
	hub := ws.NewHub()

	handler := api.NewHandler(suggester, search, fb, ingestor, hub)
	router := api.NewRouter(cfg.Server, handler)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return err
	}

	tree.AddMessagingService(supervisor.NewWebSocketHubService(hub))
	tree.AddMessagingService(supervisor.NewWebhookService(ingestor))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("tunecast server stopped")
	return nil
}
