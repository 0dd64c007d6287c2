// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"log"
	"time"
)

// Retrying retries timed out lookups of the wrapped geocoder. Any other
// error is returned at once.
type Retrying struct {
	next    Geocoder
	retries int
	delay   time.Duration
}

// NewRetrying wraps next so a timeout is retried up to retries times, waiting
// delay before each new attempt.
func NewRetrying(next Geocoder, retries int, delay time.Duration) *Retrying {
	return &Retrying{next: next, retries: retries, delay: delay}
}

func (r *Retrying) Geocode(ctx context.Context, q Query) (*Result, error) {
	for attempt := 0; ; attempt++ {
		res, err := r.next.Geocode(ctx, q)
		if err == nil || attempt >= r.retries || !IsTimeoutError(err) || ctx.Err() != nil {
			return res, err
		}

		log.Printf("geocoding %q timed out, retrying in %s (%d/%d)", q, r.delay, attempt+1, r.retries)

		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
