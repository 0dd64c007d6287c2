// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"log"
)

// Cached answers from the cache when it can and stores what the wrapped
// geocoder finds. "Not found" answers are stored as well, errors are not.
type Cached struct {
	next     Geocoder
	cache    Cache
	provider string
}

// NewCached wraps next with cache. provider is recorded on misses, where
// the wrapped geocoder returns no result to take it from.
func NewCached(next Geocoder, cache Cache, provider string) *Cached {
	return &Cached{next: next, cache: cache, provider: provider}
}

func (c *Cached) Geocode(ctx context.Context, q Query) (*Result, error) {
	key := q.Key()

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		if !entry.Found || entry.Point == nil {
			return nil, nil //nolint:nilnil // cached miss
		}

		return &Result{
			Point:       *entry.Point,
			DisplayName: entry.DisplayName,
			Provider:    entry.Provider,
			Confidence:  entry.Confidence,
		}, nil
	}

	res, err := c.next.Geocode(ctx, q)
	if err != nil {
		return nil, err
	}

	entry = &Entry{Key: key, Query: q.String(), Provider: c.provider}
	if res != nil {
		p := res.Point
		entry.Point = &p
		entry.Found = true
		entry.Provider = res.Provider
		entry.DisplayName = res.DisplayName
		entry.Confidence = res.Confidence
	}

	if err := c.cache.Put(ctx, entry); err != nil {
		// the lookup itself succeeded
		log.Printf("⚠️ %v", fmt.Errorf("caching %q: %w", q, err))
	}

	return res, nil
}
