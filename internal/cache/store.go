// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package cache provides the in-memory suggestion store.
//
// The store is deliberately unbounded with no TTL and no eviction: entries
// are created on the first successful fetch for a sanitized query, never
// invalidated, and lost on restart. Concurrent writers for the same key are
// last-write-wins.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/tunecast/tunecast/internal/metrics"
	"github.com/tunecast/tunecast/internal/models"
)

// Store is a thread-safe mapping from sanitized query to its suggestion list.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]models.SongResult

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[string][]models.SongResult),
	}
}

// Get returns the cached suggestions for key verbatim.
func (s *Store) Get(key string) ([]models.SongResult, bool) {
	s.mu.RLock()
	results, ok := s.entries[key]
	s.mu.RUnlock()

	if ok {
		s.hits.Add(1)
		metrics.SuggestCacheHits.Inc()
	} else {
		s.misses.Add(1)
		metrics.SuggestCacheMisses.Inc()
	}
	return results, ok
}

// Set stores the suggestions for key, replacing any previous entry.
func (s *Store) Set(key string, results []models.SongResult) {
	s.mu.Lock()
	s.entries[key] = results
	size := len(s.entries)
	s.mu.Unlock()

	metrics.SuggestCacheEntries.Set(float64(size))
}

// Len returns the number of cached queries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns cumulative hit and miss counts.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}
