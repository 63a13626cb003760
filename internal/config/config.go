// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package config loads and validates the Tunecast configuration using
// Koanf v2 with layered sources: built-in defaults, an optional YAML file,
// then environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	YouTube YouTubeConfig `koanf:"youtube"`
	Webhook WebhookConfig `koanf:"webhook"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// YouTubeConfig holds settings for the YouTube Data API search client.
type YouTubeConfig struct {
	// APIKey authenticates requests against the Data API. Required for live
	// searches; without it every search fails and callers degrade to the
	// fallback catalog.
	APIKey string `koanf:"api_key"`

	// BaseURL is the Data API v3 endpoint, overridable for tests.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single search HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// MaxResults is the default result-count limit per search.
	MaxResults int `koanf:"max_results"`
}

// WebhookConfig holds settings for the webhook worker pool.
type WebhookConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		YouTube: YouTubeConfig{
			BaseURL:    "https://www.googleapis.com/youtube/v3",
			Timeout:    10 * time.Second,
			MaxResults: 7,
		},
		Webhook: WebhookConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.YouTube.BaseURL == "" {
		return fmt.Errorf("youtube.base_url must not be empty")
	}
	if c.YouTube.MaxResults < 1 {
		return fmt.Errorf("youtube.max_results must be at least 1, got %d", c.YouTube.MaxResults)
	}
	if c.Webhook.Workers < 1 {
		return fmt.Errorf("webhook.workers must be at least 1, got %d", c.Webhook.Workers)
	}
	if c.Webhook.QueueSize < 1 {
		return fmt.Errorf("webhook.queue_size must be at least 1, got %d", c.Webhook.QueueSize)
	}
	return nil
}
