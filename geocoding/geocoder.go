// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding turns the city and country of a shop into coordinates
// using an external service, and remembers the answers in a duckdb cache.
package geocoding

import (
	"context"
	"strings"

	"github.com/jcodagnone/shopmap/spatial"
	"github.com/jcodagnone/shopmap/utils/textutils"
)

// Provider names stored with every result.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google_maps"
)

// Query is what gets geocoded for a shop.
type Query struct {
	City    string
	Country string
}

// String formats the query as "City, Country", omitting blank parts.
func (q Query) String() string {
	parts := make([]string, 0, 2)

	for _, p := range []string{q.City, q.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// Key is the cache key of the query: case, accents and spacing do not matter.
func (q Query) Key() string {
	return textutils.CollapseSpaces(textutils.LowerASCIIFolding(q.String()))
}

// Empty reports whether there is nothing to look up.
func (q Query) Empty() bool {
	return q.String() == ""
}

// Result represents a geocoding result from any provider.
type Result struct {
	Point       spatial.Point
	DisplayName string
	Provider    string
	Confidence  string // high, medium or low, kept in the cache
}

// Geocoder interface for different geocoding providers. A nil result with a
// nil error means the service did not find the place.
type Geocoder interface {
	Geocode(ctx context.Context, q Query) (*Result, error)
}
