// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jcodagnone/shopmap/shops"
	"github.com/jcodagnone/shopmap/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrich(t *testing.T) {
	all := []*shops.Shop{
		{Row: 2, Company: "Acme", City: "Berlin", Country: "Germany", Point: &spatial.Point{Lat: 1, Lng: 2}},
		{Row: 3, Company: "Bolt", City: "Munich", Country: "Germany"},
		{Row: 4, Company: "Cog", City: "munich", Country: "GERMANY"},
		{Row: 5, Company: "Ghost", City: "Atlantis"},
		{Row: 6, Company: "Flaky", City: "Oslo", Country: "Norway"},
		{Row: 7, Company: "Blank"},
	}

	fake := newFakeGeocoder()
	fake.add(Query{City: "Munich", Country: "Germany"}, 48.14, 11.58)
	fake.fail(Query{City: "Oslo", Country: "Norway"}, errors.New("connection refused"))

	var progress []int

	stats, err := NewEnricher(fake).Enrich(context.Background(), all, func(done, total int) {
		assert.Equal(t, 5, total)

		progress = append(progress, done)
	})
	require.NoError(t, err)

	assert.Equal(t, EnrichStats{Total: 6, AlreadyLocated: 1, Geocoded: 2, NotFound: 2, Failed: 1}, stats)
	assert.Equal(t, 3, stats.Located())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)

	assert.Equal(t, &spatial.Point{Lat: 1, Lng: 2}, all[0].Point)
	require.NotNil(t, all[1].Point)
	assert.Equal(t, *all[1].Point, *all[2].Point)
	assert.NotSame(t, all[1].Point, all[2].Point)
	assert.Nil(t, all[3].Point)
	assert.Nil(t, all[4].Point)
	assert.Nil(t, all[5].Point)

	assert.Equal(t, 1, fake.calls[Query{City: "Munich", Country: "Germany"}.Key()])
	assert.Zero(t, fake.calls[""], "empty queries must not be sent")
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEnricher(newFakeGeocoder()).Enrich(ctx, []*shops.Shop{{Row: 2, City: "Oslo"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func refusalShops() []*shops.Shop {
	return []*shops.Shop{
		{Row: 2, Company: "Acme", City: "Berlin", Country: "Germany"},
		{Row: 3, Company: "Bolt", City: "Munich", Country: "Germany"},
		{Row: 4, Company: "Cog", City: "Oslo", Country: "Norway"},
	}
}

func TestEnrichStopsOnQuotaExceeded(t *testing.T) {
	all := refusalShops()

	fake := newFakeGeocoder()
	fake.add(Query{City: "Berlin", Country: "Germany"}, 52.52, 13.405)
	fake.fail(Query{City: "Munich", Country: "Germany"}, ClassifyHTTPError(http.StatusForbidden, ""))
	fake.add(Query{City: "Oslo", Country: "Norway"}, 59.91, 10.75)

	stats, err := NewEnricher(fake).Enrich(context.Background(), all, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceRefused)
	assert.True(t, IsQuotaExceededError(err))

	assert.Equal(t, EnrichStats{Total: 3, Geocoded: 1, Failed: 1}, stats)
	assert.NotNil(t, all[0].Point, "points found before the refusal are kept")
	assert.Nil(t, all[2].Point)
	assert.Zero(t, fake.calls[Query{City: "Oslo", Country: "Norway"}.Key()], "no lookups after the quota is exhausted")
}

func TestEnrichRateLimit(t *testing.T) {
	munich := Query{City: "Munich", Country: "Germany"}
	rateLimited := ClassifyHTTPError(http.StatusTooManyRequests, "")

	tests := []struct {
		name      string
		backoff   time.Duration
		errs      []error
		wantErr   bool
		wantCalls int
	}{
		{name: "retried after backing off", backoff: 10 * time.Millisecond, errs: []error{rateLimited}, wantCalls: 2},
		{name: "persistent", backoff: 10 * time.Millisecond, errs: []error{rateLimited, rateLimited}, wantErr: true, wantCalls: 2},
		{name: "no backoff", errs: []error{rateLimited}, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := refusalShops()

			fake := newFakeGeocoder()
			fake.add(Query{City: "Berlin", Country: "Germany"}, 52.52, 13.405)
			fake.add(munich, 48.14, 11.58)
			fake.add(Query{City: "Oslo", Country: "Norway"}, 59.91, 10.75)
			fake.fail(munich, tt.errs...)

			e := NewEnricher(fake)
			e.RateLimitBackoff = tt.backoff

			stats, err := e.Enrich(context.Background(), all, nil)
			assert.Equal(t, tt.wantCalls, fake.calls[munich.Key()])

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrServiceRefused)
				assert.True(t, IsRateLimitError(err))
				assert.Nil(t, all[1].Point)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, 3, stats.Geocoded)
			require.NotNil(t, all[1].Point)
			assert.InDelta(t, 48.14, all[1].Point.Lat, 1e-9)
		})
	}
}

func TestEnrichRateLimitBackoffCancelled(t *testing.T) {
	fake := newFakeGeocoder()
	fake.fail(Query{City: "Berlin", Country: "Germany"}, ClassifyHTTPError(http.StatusTooManyRequests, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	e := NewEnricher(fake)
	e.RateLimitBackoff = time.Hour

	_, err := e.Enrich(ctx, refusalShops()[:1], nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
