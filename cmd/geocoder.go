// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/shopmap/config"
	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// openCache opens the duckdb geocode cache, creating it when missing.
func openCache(cfg *config.Config) (*sql.DB, geocoding.Cache, error) {
	if err := os.MkdirAll(cfg.DB.Path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(cfg.DB.Path, config.DBFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	cache := geocoding.NewCache(db)
	if err := cache.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating geocode cache schema: %w", err)
	}

	return db, cache, nil
}

// newGeocoder builds the configured provider behind retries and the cache.
func newGeocoder(ctx context.Context, cfg *config.Config, cache geocoding.Cache) (geocoding.Geocoder, error) {
	var trace io.Writer
	if cfg.Geocoder.TraceHTTP {
		trace = os.Stderr
	}

	var (
		g        geocoding.Geocoder
		provider string
	)

	switch cfg.Geocoder.Provider {
	case config.ProviderGoogle:
		apiKey := cfg.Google.APIKey
		if apiKey == "" {
			log.Println("google.api_key is not set. Attempting to retrieve via ADC...")

			var err error

			apiKey, err = geocoding.APIKeyFromADC(ctx, cfg.Google.Project)
			if err != nil {
				return nil, fmt.Errorf("google.api_key is not set and ADC failed: %w", err)
			}

			log.Println("✅ Successfully retrieved Google Maps API Key via ADC")
		}

		g = geocoding.NewGoogleMapsGeocoder(apiKey, cfg.Geocoder.Timeout, trace)
		provider = geocoding.ProviderGoogle

		fmt.Println("📍 Geocoding: Google Maps")
	default:
		g = geocoding.NewNominatimGeocoder(geocoding.NominatimOptions{
			BaseURL:   cfg.Geocoder.NominatimURL,
			UserAgent: cfg.Geocoder.UserAgent,
			Timeout:   cfg.Geocoder.Timeout,
			Rate:      cfg.Geocoder.Rate,
			Trace:     trace,
		})
		provider = geocoding.ProviderNominatim

		fmt.Printf("📍 Geocoding: Nominatim (%s)\n", cfg.Geocoder.NominatimURL)
	}

	g = geocoding.NewRetrying(g, cfg.Geocoder.Retries, cfg.Geocoder.RetryDelay)

	return geocoding.NewCached(g, cache, provider), nil
}

// progress returns an Enrich callback drawing a bar on a terminal and
// logging every few rows otherwise.
func progress(description string) func(done, total int) {
	var bar *progressbar.ProgressBar

	tty := isatty.IsTerminal(os.Stderr.Fd())

	return func(done, total int) {
		if !tty {
			if done == total || done%25 == 0 {
				log.Printf("%s %d/%d", description, done, total)
			}

			return
		}

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		if err := bar.Set(done); err != nil {
			log.Printf("updating progress bar: %v", err)
		}
	}
}
