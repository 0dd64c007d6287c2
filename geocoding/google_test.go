// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleMapsGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		switch r.URL.Query().Get("address") {
		case "Paris, France":
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Paris, France",
				"geometry":{"location":{"lat":48.8566,"lng":2.3522},"location_type":"APPROXIMATE"}}]}`))
		case "Nowhere, Atlantis":
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		case "Busy, Town":
			_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","results":[]}`))
		default:
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`))
		}
	}))
	defer srv.Close()

	g := NewGoogleMapsGeocoder("secret", time.Second, nil)
	g.endpoint = srv.URL

	ctx := context.Background()

	res, err := g.Geocode(ctx, Query{City: "Paris", Country: "France"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 48.8566, res.Point.Lat, 1e-9)
	assert.Equal(t, ProviderGoogle, res.Provider)
	assert.Equal(t, "low", res.Confidence)

	res, err = g.Geocode(ctx, Query{City: "Nowhere", Country: "Atlantis"})
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = g.Geocode(ctx, Query{City: "Busy", Country: "Town"})
	assert.True(t, IsQuotaExceededError(err))

	_, err = g.Geocode(ctx, Query{City: "Other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}
