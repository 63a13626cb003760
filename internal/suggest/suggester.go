// Tunecast - Song Suggestion Backend
// Copyright 2026 Tunecast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunecast/tunecast

// Package suggest implements the query-to-suggestions pipeline: sanitize,
// consult the cache, search, reorder, cache, with fallback content on any
// search failure.
package suggest

import (
	"context"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tunecast/tunecast/internal/cache"
	"github.com/tunecast/tunecast/internal/fallback"
	"github.com/tunecast/tunecast/internal/logging"
	"github.com/tunecast/tunecast/internal/models"
)

// minQueryLength is the shortest trimmed query worth searching for.
const minQueryLength = 2

// fallbackSampleSize is how many fallback songs are served when search fails.
const fallbackSampleSize = 5

var (
	nonAlnumRE   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Searcher is the external search dependency.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.SongResult, error)
}

// Suggester handles suggestion queries end to end.
type Suggester struct {
	search   Searcher
	cache    *cache.Store
	fallback *fallback.Provider
}

// New creates a Suggester wired to its collaborators.
func New(search Searcher, store *cache.Store, fb *fallback.Provider) *Suggester {
	return &Suggester{
		search:   search,
		cache:    store,
		fallback: fb,
	}
}

// Sanitize strips every character that is not alphanumeric or whitespace,
// collapses whitespace runs to single spaces, and trims. Idempotent.
func Sanitize(query string) string {
	cleaned := nonAlnumRE.ReplaceAllString(query, "")
	cleaned = whitespaceRE.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Handle serves one suggestion query.
//
// Queries shorter than two characters after trimming return an empty list
// without a cache lookup or an external call. On a cache miss the search
// result is reordered, cached under the sanitized query, and returned; any
// search failure degrades to a fallback sample which is never cached.
func (s *Suggester) Handle(ctx context.Context, rawQuery string) []models.SongResult {
	trimmed := strings.TrimSpace(rawQuery)
	if utf8.RuneCountInString(trimmed) < minQueryLength {
		logging.Debug().Msg("query too short, returning empty list")
		return []models.SongResult{}
	}

	query := Sanitize(trimmed)
	logging.Debug().Str("raw", trimmed).Str("sanitized", query).Msg("sanitized query")

	if cached, ok := s.cache.Get(query); ok {
		logging.Debug().Str("query", query).Msg("cache hit")
		return cached
	}

	results, err := s.search.Search(ctx, query, 0)
	if err != nil {
		logging.Error().Err(err).Str("query", query).Msg("suggestion fetch failed, serving fallback")
		return s.fallback.Songs(fallbackSampleSize)
	}

	ranked := rank(results)
	s.cache.Set(query, ranked)
	return ranked
}

// rank sorts results descending by title length and then applies a uniform
// random shuffle. The shuffle destroys the sort, leaving a random order; this
// matches the deployed behavior and is kept until a real ranking signal
// replaces it.
func rank(results []models.SongResult) []models.SongResult {
	ranked := make([]models.SongResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return len(ranked[i].Title) > len(ranked[j].Title)
	})
	rand.Shuffle(len(ranked), func(i, j int) {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	})

	logging.Debug().Int("count", len(ranked)).Msg("ranked results")
	return ranked
}
