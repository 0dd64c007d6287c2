// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedData represents the JSON file a cache is exported to.
type SeedData struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	Entries     []*Entry  `json:"entries"`
}

const exportPageSize = 500

// ExportToJSON writes every cache entry to a JSON file.
func ExportToJSON(ctx context.Context, cache Cache, filepath string) (int, error) {
	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now().UTC(),
	}

	for offset := 0; ; offset += exportPageSize {
		page, err := cache.List(ctx, exportPageSize, offset)
		if err != nil {
			return 0, err
		}

		seed.Entries = append(seed.Entries, page...)

		if len(page) < exportPageSize {
			break
		}
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(seed.Entries), nil
}

// ImportFromJSON loads the entries of an exported file into the cache,
// replacing entries with the same key.
func ImportFromJSON(ctx context.Context, cache Cache, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the user
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	imported := 0

	for _, e := range seed.Entries {
		if err := cache.Put(ctx, e); err != nil {
			return imported, fmt.Errorf("importing %q: %w", e.Query, err)
		}

		imported++
	}

	return imported, nil
}
