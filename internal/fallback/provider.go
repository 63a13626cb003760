// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package fallback supplies canned suggestion content when the external
// search provider is unavailable, plus a bounded-retry recovery wrapper.
package fallback

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/metrics"
	"github.com/tunecast/tunecast/internal/models"
)

// Placeholder values used when normalizing incomplete catalog entries.
const (
	UnknownSongTitle    = "Unknown Song"
	UnknownPlaylistName = "Unknown Playlist"
)

const (
	defaultSongLimit  = 5
	defaultMaxRetries = 3
	defaultRetryDelay = 100 * time.Millisecond
)

var songCatalog = []models.SongResult{
	{Title: "Shape of You", VideoID: "JGwWNGJdvx8", Thumbnail: "https://i.ytimg.com/vi/JGwWNGJdvx8/default.jpg"},
	{Title: "Blinding Lights", VideoID: "4NRXx6U8ABQ", Thumbnail: "https://i.ytimg.com/vi/4NRXx6U8ABQ/default.jpg"},
	{Title: "Levitating", VideoID: "TUVcZfQe-Kw", Thumbnail: "https://i.ytimg.com/vi/TUVcZfQe-Kw/default.jpg"},
	{Title: "Dance Monkey", VideoID: "q0hyYWKXF0Q", Thumbnail: "https://i.ytimg.com/vi/q0hyYWKXF0Q/default.jpg"},
	{Title: "Someone You Loved", VideoID: "zABLecsR5UE", Thumbnail: "https://i.ytimg.com/vi/zABLecsR5UE/default.jpg"},
}

var playlistCatalog = []models.PlaylistResult{
	{Name: "Top Hits", PlaylistID: "PLFgquLnL59alCl_2TQvOiD5Vgm1hCaGSI"},
	{Name: "Pop Essentials", PlaylistID: "PLMC9KNkIncKtPzgY-5rmhvj7fax8fdxoj"},
}

// Provider serves fallback content and retries failing work.
//
// The retry counter is cumulative across all WithRecovery calls on an
// instance; it is NOT reset between independent invocations. Callers that
// need fresh retry budgets need fresh providers.
type Provider struct {
	mu         sync.Mutex
	retryCount int
	maxRetries int
	retryDelay time.Duration
}

// New creates a Provider with the default retry policy (3 attempts, 100ms
// pause between attempts).
func New() *Provider {
	return NewWithRetry(defaultMaxRetries, defaultRetryDelay)
}

// NewWithRetry creates a Provider with a custom retry policy.
func NewWithRetry(maxRetries int, retryDelay time.Duration) *Provider {
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}
	return &Provider{
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Songs returns a uniform random sample without replacement of size
// min(limit, catalog size). A non-positive limit means the default of 5.
func (p *Provider) Songs(limit int) []models.SongResult {
	if limit <= 0 {
		limit = defaultSongLimit
	}
	if limit > len(songCatalog) {
		limit = len(songCatalog)
	}

	sample := make([]models.SongResult, 0, limit)
	for _, i := range rand.Perm(len(songCatalog))[:limit] {
		sample = append(sample, songCatalog[i])
	}

	logging.Debug().Int("count", len(sample)).Msg("serving fallback songs")
	metrics.FallbackServedTotal.Inc()
	return sample
}

// Playlists returns the full fallback playlist catalog.
func (p *Provider) Playlists() []models.PlaylistResult {
	playlists := make([]models.PlaylistResult, len(playlistCatalog))
	copy(playlists, playlistCatalog)
	return playlists
}

// RandomSong picks one normalized song from the catalog.
func (p *Provider) RandomSong() models.SongResult {
	return NormalizeSong(songCatalog[rand.Intn(len(songCatalog))])
}

// RandomPlaylist picks one normalized playlist from the catalog.
func (p *Provider) RandomPlaylist() models.PlaylistResult {
	return NormalizePlaylist(playlistCatalog[rand.Intn(len(playlistCatalog))])
}

// WithRecovery runs work, retrying on failure until the provider's cumulative
// retry budget is exhausted, then returns the song fallback sample instead of
// an error. A short fixed pause separates attempts.
func (p *Provider) WithRecovery(work func() ([]models.SongResult, error)) []models.SongResult {
	for {
		p.mu.Lock()
		exhausted := p.retryCount >= p.maxRetries
		p.mu.Unlock()
		if exhausted {
			break
		}

		results, err := work()
		if err == nil {
			return results
		}

		p.mu.Lock()
		p.retryCount++
		attempt := p.retryCount
		p.mu.Unlock()

		logging.Warn().Err(err).Int("attempt", attempt).Msg("recovery attempt failed")
		time.Sleep(p.retryDelay)
	}

	logging.Error().Int("max_retries", p.maxRetries).Msg("all recovery attempts failed, serving fallback songs")
	return p.Songs(defaultSongLimit)
}

// NormalizeSong fills missing song fields with placeholders.
func NormalizeSong(song models.SongResult) models.SongResult {
	if song.Title == "" {
		song.Title = UnknownSongTitle
	}
	return song
}

// NormalizePlaylist fills missing playlist fields with placeholders.
func NormalizePlaylist(playlist models.PlaylistResult) models.PlaylistResult {
	if playlist.Name == "" {
		playlist.Name = UnknownPlaylistName
	}
	return playlist
}

// Metrics returns a snapshot of provider counters.
func (p *Provider) Metrics() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"fallback_invocations": p.retryCount,
		"available_songs":      len(songCatalog),
		"available_playlists":  len(playlistCatalog),
	}
}
