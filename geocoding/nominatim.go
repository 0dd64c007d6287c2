// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcodagnone/shopmap/spatial"
	"github.com/jcodagnone/shopmap/utils/httputils"
	"golang.org/x/time/rate"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimOptions configures a NominatimGeocoder.
type NominatimOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Rate      float64 // requests per second
	Trace     io.Writer
}

// NominatimGeocoder uses the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewNominatimGeocoder creates a new Nominatim geocoder. Requests are spaced
// according to opts.Rate, the public instance allows one per second.
func NewNominatimGeocoder(opts NominatimOptions) *NominatimGeocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &NominatimGeocoder{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httputils.NewClient(opts.Timeout, map[string]string{
			"User-Agent": opts.UserAgent,
			"Accept":     "application/json",
		}, opts.Trace, false),
		limiter: rate.NewLimiter(limit, 1),
	}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, q Query) (*Result, error) {
	if q.Empty() {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "empty query"}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q.String())
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(places) == 0 {
		return nil, nil //nolint:nilnil // not found
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", place.Lat, err)
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", place.Lon, err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return nil, fmt.Errorf("nominatim returned an invalid point %s", p)
	}

	confidence := "low"

	switch {
	case place.Importance >= 0.6:
		confidence = "high"
	case place.Importance >= 0.3:
		confidence = "medium"
	}

	return &Result{
		Point:       p,
		DisplayName: place.DisplayName,
		Provider:    ProviderNominatim,
		Confidence:  confidence,
	}, nil
}
