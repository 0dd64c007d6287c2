// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/shopmap/shops"
)

// EnrichStats counts what happened to every row of an enrichment run.
type EnrichStats struct {
	Total          int `json:"total"`
	AlreadyLocated int `json:"already_located"`
	Geocoded       int `json:"geocoded"`
	NotFound       int `json:"not_found"`
	Failed         int `json:"failed"`
}

// Located returns how many rows have coordinates after the run.
func (s EnrichStats) Located() int {
	return s.AlreadyLocated + s.Geocoded
}

func (s EnrichStats) String() string {
	return fmt.Sprintf("%d rows: %d already located, %d geocoded, %d not found, %d failed",
		s.Total, s.AlreadyLocated, s.Geocoded, s.NotFound, s.Failed)
}

// ErrServiceRefused is returned when the geocoding service stops taking
// lookups: the quota is exhausted or the rate limit persists after backing off.
var ErrServiceRefused = errors.New("geocoding service refused further lookups")

// DefaultRateLimitBackoff is the pause before retrying a rate limited query.
const DefaultRateLimitBackoff = 30 * time.Second

// Enricher fills in the coordinates of shops that lack them.
type Enricher struct {
	geocoder Geocoder

	// RateLimitBackoff is how long to wait before retrying a query refused
	// with a rate limit. Zero stops the run on the first rate limit.
	RateLimitBackoff time.Duration
}

// NewEnricher creates an Enricher using g for the lookups.
func NewEnricher(g Geocoder) *Enricher {
	return &Enricher{geocoder: g, RateLimitBackoff: DefaultRateLimitBackoff}
}

// lookup geocodes q, retrying once after RateLimitBackoff when the service
// answers with a rate limit.
func (e *Enricher) lookup(ctx context.Context, q Query) (*Result, error) {
	res, err := e.geocoder.Geocode(ctx, q)
	if err == nil || !IsRateLimitError(err) || e.RateLimitBackoff <= 0 {
		return res, err
	}

	log.Printf("⏳ rate limited on %s, waiting %v", q, e.RateLimitBackoff)

	timer := time.NewTimer(e.RateLimitBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return e.geocoder.Geocode(ctx, q)
}

type outcome struct {
	res *Result
	err error
}

// Enrich geocodes "City, Country" for every shop without coordinates. Each
// distinct query is looked up once per run. A failed lookup leaves the shop
// unlocated and the run continues, except when the service refuses further
// lookups (quota exceeded or a persistent rate limit): the run then stops with
// ErrServiceRefused and the stats and points gathered so far.
// onProgress, when set, is called after each row needing a lookup.
func (e *Enricher) Enrich(ctx context.Context, all []*shops.Shop, onProgress func(done, total int)) (EnrichStats, error) {
	stats := EnrichStats{Total: len(all)}
	pending := shops.Unlocated(all)
	stats.AlreadyLocated = stats.Total - len(pending)

	seen := make(map[string]outcome)

	for i, s := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		q := Query{City: s.City, Country: s.Country}

		o, ok := seen[q.Key()]
		if !ok {
			if q.Empty() {
				o = outcome{}
			} else {
				o.res, o.err = e.lookup(ctx, q)
			}

			if o.err != nil && ctx.Err() != nil {
				return stats, ctx.Err()
			}

			if o.err != nil && (IsQuotaExceededError(o.err) || IsRateLimitError(o.err)) {
				stats.Failed++

				return stats, fmt.Errorf("%w at row %d (%s): %w", ErrServiceRefused, s.Row, q, o.err)
			}

			seen[q.Key()] = o
		}

		switch {
		case o.err != nil:
			stats.Failed++

			log.Printf("geocoding row %d (%s): %v", s.Row, q, o.err)
		case o.res == nil:
			stats.NotFound++
		default:
			p := o.res.Point
			s.Point = &p
			stats.Geocoded++
		}

		if onProgress != nil {
			onProgress(i+1, len(pending))
		}
	}

	return stats, nil
}
