// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/webhook"
	ws "github.com/tunecast/tunecast/internal/websocket"
)

// HTTPServerService runs an http.Server under supervision. Serve blocks
// until the context is canceled, then shuts the server down gracefully.
type HTTPServerService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server for supervision.
func NewHTTPServerService(server *http.Server, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("http server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("http server shutdown failed")
		}
		<-errCh
		logging.Info().Msg("http server stopped")
		return ctx.Err()
	}
}

func (s *HTTPServerService) String() string {
	return "http-server"
}

// WebSocketHubService runs the websocket hub under supervision.
type WebSocketHubService struct {
	hub *ws.Hub
}

// NewWebSocketHubService wraps hub for supervision.
func NewWebSocketHubService(hub *ws.Hub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve implements suture.Service.
func (s *WebSocketHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *WebSocketHubService) String() string {
	return "websocket-hub"
}

// WebhookService runs the webhook worker pool under supervision.
type WebhookService struct {
	ingestor *webhook.Ingestor
}

// NewWebhookService wraps ingestor for supervision.
func NewWebhookService(ingestor *webhook.Ingestor) *WebhookService {
	return &WebhookService{ingestor: ingestor}
}

// Serve implements suture.Service.
func (s *WebhookService) Serve(ctx context.Context) error {
	return s.ingestor.Serve(ctx)
}

func (s *WebhookService) String() string {
	return "webhook-ingestor"
}
