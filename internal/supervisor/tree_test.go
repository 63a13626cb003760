// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tunecast/tunecast/internal/config"
	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/webhook"
	ws "github.com/tunecast/tunecast/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
}

func TestDefaultTreeConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 {
		t.Errorf("unexpected failure threshold %v", cfg.FailureThreshold)
	}
	if cfg.FailureDecay != 30.0 {
		t.Errorf("unexpected failure decay %v", cfg.FailureDecay)
	}
	if cfg.FailureBackoff != 15*time.Second {
		t.Errorf("unexpected failure backoff %v", cfg.FailureBackoff)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected shutdown timeout %v", cfg.ShutdownTimeout)
	}
}

func TestNewSupervisorTreeAppliesDefaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("expected root supervisor")
	}
	if tree.config.FailureThreshold != 5.0 || tree.config.ShutdownTimeout != 10*time.Second {
		t.Fatalf("zero config values were not defaulted: %+v", tree.config)
	}
}

func TestServiceNames(t *testing.T) {
	t.Parallel()

	httpSvc := NewHTTPServerService(&http.Server{}, 0)
	if httpSvc.String() != "http-server" {
		t.Errorf("unexpected name %q", httpSvc.String())
	}
	hubSvc := NewWebSocketHubService(ws.NewHub())
	if hubSvc.String() != "websocket-hub" {
		t.Errorf("unexpected name %q", hubSvc.String())
	}
	whSvc := NewWebhookService(webhook.New(config.WebhookConfig{Workers: 1, QueueSize: 1}))
	if whSvc.String() != "webhook-ingestor" {
		t.Errorf("unexpected name %q", whSvc.String())
	}
}

func TestHTTPServerServiceGracefulStop(t *testing.T) {
	t.Parallel()

	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give the listener a moment to come up, then stop it.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestTreeRunsSupervisedServices(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(logging.NewSlogLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hub := ws.NewHub()
	ingestor := webhook.New(config.WebhookConfig{Workers: 1, QueueSize: 4})
	tree.AddMessagingService(NewWebSocketHubService(hub))
	tree.AddMessagingService(NewWebhookService(ingestor))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	// The hub accepts registrations once supervision is running.
	client := ws.NewClient(hub, nil)
	select {
	case hub.Register <- client:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not start under supervision")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
}
