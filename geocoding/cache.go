// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcodagnone/shopmap/spatial"
)

// Entry is one cached lookup. Point is nil when the service found nothing.
type Entry struct {
	Key         string         `json:"key"`
	Query       string         `json:"query"`
	Point       *spatial.Point `json:"point"`
	Found       bool           `json:"found"`
	Provider    string         `json:"provider"`
	DisplayName string         `json:"display_name"`
	Confidence  string         `json:"confidence,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CacheStats summarizes the cache content.
type CacheStats struct {
	Entries    int            `json:"entries"`
	Found      int            `json:"found"`
	NotFound   int            `json:"not_found"`
	ByProvider map[string]int `json:"by_provider"`
}

// Cache handles persistence of geocoding outcomes.
type Cache interface {
	// CreateSchema creates the geocodes table
	CreateSchema() error

	// Get returns the entry for key, or nil when the query was never looked up
	Get(ctx context.Context, key string) (*Entry, error)

	// Put saves or replaces an entry
	Put(ctx context.Context, e *Entry) error

	// List returns entries, newest first
	List(ctx context.Context, limit, offset int) ([]*Entry, error)

	// Stats counts the entries
	Stats(ctx context.Context) (*CacheStats, error)

	// Clear removes every entry and returns how many were removed
	Clear(ctx context.Context) (int64, error)
}

type sqlCache struct {
	db *sql.DB
}

// NewCache creates a duckdb backed cache.
func NewCache(db *sql.DB) Cache {
	return &sqlCache{db: db}
}

func (c *sqlCache) CreateSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS geocodes (
			query_key VARCHAR PRIMARY KEY,
			query VARCHAR NOT NULL,
			point STRUCT(x DOUBLE, y DOUBLE),
			found BOOLEAN NOT NULL,
			provider VARCHAR NOT NULL,
			display_name VARCHAR NOT NULL DEFAULT '',
			confidence VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// caches created before confidence was recorded
	_, err = c.db.Exec(`ALTER TABLE geocodes ADD COLUMN IF NOT EXISTS confidence VARCHAR DEFAULT ''`)

	return err
}

const entryColumns = `query_key, query, point, found, provider, display_name, COALESCE(confidence, ''), created_at`

const insertColumns = `query_key, query, point, found, provider, display_name, confidence, created_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (*Entry, error) {
	var e Entry
	if err := row.Scan(&e.Key, &e.Query, &e.Point, &e.Found, &e.Provider, &e.DisplayName, &e.Confidence, &e.CreatedAt); err != nil {
		return nil, err
	}

	return &e, nil
}

func (c *sqlCache) Get(ctx context.Context, key string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM geocodes WHERE query_key = ?`, key)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // never looked up
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache entry %q: %w", key, err)
	}

	return e, nil
}

func (c *sqlCache) Put(ctx context.Context, e *Entry) error {
	if e.Key == "" {
		return errors.New("cache entry without key")
	}

	if e.Found && e.Point == nil {
		return errors.New("point can't be null for a found entry")
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var err error
	if e.Point != nil {
		_, err = c.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO geocodes (`+insertColumns+`)
			VALUES (?, ?, struct_pack(x := ?::DOUBLE, y := ?::DOUBLE), ?, ?, ?, ?, ?)
		`, e.Key, e.Query, e.Point.Lng, e.Point.Lat, e.Found, e.Provider, e.DisplayName, e.Confidence, e.CreatedAt)
	} else {
		_, err = c.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO geocodes (`+insertColumns+`)
			VALUES (?, ?, NULL, ?, ?, ?, ?, ?)
		`, e.Key, e.Query, e.Found, e.Provider, e.DisplayName, e.Confidence, e.CreatedAt)
	}

	if err != nil {
		return fmt.Errorf("saving cache entry %q: %w", e.Key, err)
	}

	return nil
}

func (c *sqlCache) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	if offset < 0 {
		offset = 0
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM geocodes
		ORDER BY created_at DESC, query_key
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	defer rows.Close()

	var entries []*Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (c *sqlCache) Stats(ctx context.Context) (*CacheStats, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT provider, found, COUNT(*) FROM geocodes GROUP BY provider, found
	`)
	if err != nil {
		return nil, fmt.Errorf("counting cache entries: %w", err)
	}
	defer rows.Close()

	stats := &CacheStats{ByProvider: make(map[string]int)}

	for rows.Next() {
		var (
			provider string
			found    bool
			count    int
		)

		if err := rows.Scan(&provider, &found, &count); err != nil {
			return nil, fmt.Errorf("scanning cache stats: %w", err)
		}

		stats.Entries += count
		stats.ByProvider[provider] += count

		if found {
			stats.Found += count
		} else {
			stats.NotFound += count
		}
	}

	return stats, rows.Err()
}

func (c *sqlCache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM geocodes`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}

	return res.RowsAffected()
}
