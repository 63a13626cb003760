// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package webhook validates and processes inbound webhook events on a
// bounded worker pool. Intake acknowledges before processing; handlers run
// asynchronously and their failures only surface in counters and logs.
package webhook

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tunecast/tunecast/internal/config"
	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/metrics"
	"github.com/tunecast/tunecast/internal/models"
)

// Ingestor validates webhook payloads and dispatches accepted events to
// per-type handlers on a fixed pool of workers.
type Ingestor struct {
	queue   chan models.WebhookEvent
	workers int
	wg      sync.WaitGroup

	// qmu serializes sends against the shutdown close of queue.
	qmu    sync.Mutex
	closed atomic.Bool

	validate *validator.Validate

	received  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

// New creates an Ingestor with the configured pool size and queue depth.
// Serve must be called before events are processed.
func New(cfg config.WebhookConfig) *Ingestor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Ingestor{
		queue:    make(chan models.WebhookEvent, cfg.QueueSize),
		workers:  cfg.Workers,
		validate: validate,
	}
}

// MarkReceived counts one inbound delivery attempt, valid or not.
func (i *Ingestor) MarkReceived() {
	i.received.Add(1)
	metrics.WebhookEventsReceived.Inc()
}

// MarkFailed counts one failed delivery or processing attempt.
func (i *Ingestor) MarkFailed() {
	i.failed.Add(1)
	metrics.WebhookEventsFailed.Inc()
}

// Validate checks the structural requirements of an event: a non-empty
// event_type and a present data key. An explicit null data value passes.
// Returns a field-level validation error suitable for a 400 response, or nil.
func (i *Ingestor) Validate(event models.WebhookEvent) *models.ValidationError {
	if err := i.validate.Struct(event); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			return models.NewValidationErrorMessage(field, "missing '"+field+"' field")
		}
		return models.NewValidationError("payload")
	}
	if event.Data == nil {
		return models.NewValidationErrorMessage("data", "missing 'data' field")
	}
	return nil
}

// Enqueue hands a validated event to the worker pool without blocking. A full
// queue or a stopped ingestor drops the event and counts it as failed.
func (i *Ingestor) Enqueue(event models.WebhookEvent) bool {
	i.qmu.Lock()
	defer i.qmu.Unlock()

	if i.closed.Load() {
		i.MarkFailed()
		logging.Warn().Str("event_type", event.EventType).Msg("webhook ingestor stopped, dropping event")
		return false
	}

	select {
	case i.queue <- event:
		metrics.WebhookQueueDepth.Set(float64(len(i.queue)))
		return true
	default:
		i.MarkFailed()
		logging.Warn().Str("event_type", event.EventType).Msg("webhook queue full, dropping event")
		return false
	}
}

// Serve runs the worker pool until ctx is canceled, then drains the queue and
// returns ctx.Err(). Designed for suture supervision.
func (i *Ingestor) Serve(ctx context.Context) error {
	logging.Info().Int("workers", i.workers).Msg("webhook ingestor started")

	for w := 0; w < i.workers; w++ {
		i.wg.Add(1)
		go i.worker(w)
	}

	<-ctx.Done()
	i.qmu.Lock()
	i.closed.Store(true)
	close(i.queue)
	i.qmu.Unlock()
	i.wg.Wait()
	logging.Info().Msg("webhook ingestor stopped")
	return ctx.Err()
}

func (i *Ingestor) worker(id int) {
	defer i.wg.Done()
	for event := range i.queue {
		metrics.WebhookQueueDepth.Set(float64(len(i.queue)))
		i.process(id, event)
	}
}

// process dispatches one event to its handler.
func (i *Ingestor) process(worker int, event models.WebhookEvent) {
	log := logging.With().Int("worker", worker).Str("event_type", event.EventType).Logger()

	var err error
	switch event.EventType {
	case models.EventTypeSongUpdate:
		err = i.handleSongUpdate(event)
	case models.EventTypePlaylistUpdate:
		err = i.handlePlaylistUpdate(event)
	default:
		err = i.handleGeneric(event)
	}

	if err != nil {
		i.MarkFailed()
		log.Error().Err(err).Msg("webhook event processing failed")
		return
	}
	i.processed.Add(1)
	metrics.WebhookEventsProcessed.Inc()
	log.Debug().Msg("webhook event processed")
}

func (i *Ingestor) handleSongUpdate(event models.WebhookEvent) error {
	logging.Info().
		Str("event_type", event.EventType).
		RawJSON("data", event.Data).
		Msg("song update received")
	return nil
}

func (i *Ingestor) handlePlaylistUpdate(event models.WebhookEvent) error {
	logging.Info().
		Str("event_type", event.EventType).
		RawJSON("data", event.Data).
		Msg("playlist update received")
	return nil
}

// handleGeneric accepts any event type not otherwise handled. Unknown types
// are processed, not rejected, so new producers can ship before consumers.
func (i *Ingestor) handleGeneric(event models.WebhookEvent) error {
	logging.Info().
		Str("event_type", event.EventType).
		Msg("generic webhook event received")
	return nil
}

// SimulateEvent validates and enqueues a synthetic event, exercising the full
// intake path without an HTTP caller. Returns whether the event was accepted.
func (i *Ingestor) SimulateEvent(eventType string, data map[string]any) bool {
	i.MarkReceived()
	event := models.WebhookEvent{EventType: eventType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			i.MarkFailed()
			return false
		}
		event.Data = raw
	}
	if verr := i.Validate(event); verr != nil {
		i.MarkFailed()
		logging.Warn().Str("field", verr.Field).Msg("simulated event failed validation")
		return false
	}
	return i.Enqueue(event)
}

// QueueDepth returns the number of events waiting for a worker.
func (i *Ingestor) QueueDepth() int {
	return len(i.queue)
}

// Metrics returns a snapshot of ingestor counters.
func (i *Ingestor) Metrics() map[string]int64 {
	return map[string]int64{
		"events_received":  i.received.Load(),
		"events_processed": i.processed.Load(),
		"events_failed":    i.failed.Load(),
	}
}
