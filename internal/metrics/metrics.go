// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package metrics provides Prometheus instrumentation for the HTTP API, the
// search client, the suggestion cache, the websocket hub, and the webhook
// worker pool. Exposed at GET /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Search provider metrics
	SearchRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search calls issued to the external provider",
		},
	)

	SearchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_failures_total",
			Help: "Total number of failed external search calls",
		},
	)

	// Suggestion cache metrics
	SuggestCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggest_cache_hits_total",
			Help: "Total number of suggestion cache hits",
		},
	)

	SuggestCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggest_cache_misses_total",
			Help: "Total number of suggestion cache misses",
		},
	)

	SuggestCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "suggest_cache_entries",
			Help: "Current number of cached suggestion queries",
		},
	)

	FallbackServedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fallback_served_total",
			Help: "Total number of responses served from the fallback catalog",
		},
	)

	// WebSocket metrics
	WSConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total number of websocket connections accepted",
		},
	)

	WSDisconnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_disconnections_total",
			Help: "Total number of websocket disconnections",
		},
	)

	WSEventsReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_events_received_total",
			Help: "Total number of suggestion events received over websocket",
		},
	)

	WSActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_active_connections",
			Help: "Current number of connected websocket clients",
		},
	)

	// Webhook metrics
	WebhookEventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_received_total",
			Help: "Total number of webhook events received",
		},
	)

	WebhookEventsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_processed_total",
			Help: "Total number of webhook events processed successfully",
		},
	)

	WebhookEventsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_failed_total",
			Help: "Total number of webhook events that failed validation or processing",
		},
	)

	WebhookQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhook_queue_depth",
			Help: "Current number of webhook events waiting for a worker",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active-request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
