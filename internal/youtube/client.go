// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package youtube implements the external search client against the YouTube
// Data API v3. The HTTP call is wrapped in a circuit breaker so a flapping
// upstream fails fast instead of piling up slow requests.
//
// Search returns errors to its caller; the suggestion pipeline decides how
// to degrade. Callers must never surface these errors to end users.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tunecast/tunecast/internal/config"
	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/metrics"
	"github.com/tunecast/tunecast/internal/models"
)

const (
	// ProviderName identifies this client in metrics and health output.
	ProviderName = "youtube"

	defaultMaxResults = 7
	breakerName       = "youtube-search"
)

// Client calls the YouTube Data API search endpoint and normalizes its
// responses into SongResult records.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]models.SongResult]

	requests atomic.Int64
}

// New creates a search client from configuration.
func New(cfg config.YouTubeConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if cfg.MaxResults < 1 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.SongResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
	}
}

// Search executes one search call against the Data API.
//
// An empty query returns an empty result set without touching the wire. A
// non-positive limit uses the configured default. Records without a video ID
// are dropped during normalization; response order is preserved.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SongResult, error) {
	if query == "" {
		logging.Warn().Msg("empty search query received")
		return []models.SongResult{}, nil
	}
	if limit <= 0 {
		limit = c.maxResults
	}

	logging.Debug().Str("query", query).Int("limit", limit).Msg("executing search query")

	// The counter lives inside the breaker so an open-state rejection, which
	// never reaches the wire, is not counted as a request.
	results, err := c.cb.Execute(func() ([]models.SongResult, error) {
		c.requests.Add(1)
		metrics.SearchRequestsTotal.Inc()
		raw, err := c.execute(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return normalize(raw), nil
	})
	if err != nil {
		metrics.SearchFailuresTotal.Inc()
		logging.Error().Err(err).Str("query", query).Msg("search failed")
		return nil, models.NewExternalServiceError(ProviderName, err)
	}

	logging.Debug().Int("results", len(results)).Msg("parsed search results")
	return results, nil
}

// HealthCheck performs a lightweight 1-result probe search and reports
// success as a boolean. It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Search(ctx, "test", 1)
	return err == nil
}

// Metrics returns a snapshot of client counters.
func (c *Client) Metrics() map[string]any {
	return map[string]any{
		"provider":      ProviderName,
		"requests_made": c.requests.Load(),
	}
}

// searchResponse mirrors the subset of the Data API v3 search.list response
// this client consumes.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Thumbnails  thumbnails `json:"thumbnails"`
	} `json:"snippet"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// smallest returns the URL of the smallest rendition present.
func (t thumbnails) smallest() string {
	switch {
	case t.Default.URL != "":
		return t.Default.URL
	case t.Medium.URL != "":
		return t.Medium.URL
	default:
		return t.High.URL
	}
}

func (c *Client) execute(ctx context.Context, query string, limit int) (*searchResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("key", c.apiKey)

	searchURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request returned status %d: %s", resp.StatusCode, body)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	logging.Debug().Dur("elapsed", time.Since(start)).Msg("search request completed")
	return &parsed, nil
}

// normalize converts raw API items into SongResult records, dropping any
// item without a video ID and keeping response order.
func normalize(resp *searchResponse) []models.SongResult {
	results := make([]models.SongResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, models.SongResult{
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			VideoID:     item.ID.VideoID,
			Thumbnail:   item.Snippet.Thumbnails.smallest(),
		})
	}
	return results
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
