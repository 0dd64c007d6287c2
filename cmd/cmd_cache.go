// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/jcodagnone/shopmap/utils/textutils"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and reset the geocode cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count the cached lookups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := cache.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Cached lookups: %s (%s found, %s not found)\n",
			textutils.FormatInt(int64(stats.Entries)),
			textutils.FormatInt(int64(stats.Found)),
			textutils.FormatInt(int64(stats.NotFound)))

		providers := make([]string, 0, len(stats.ByProvider))
		for p := range stats.ByProvider {
			providers = append(providers, p)
		}

		sort.Strings(providers)

		for _, p := range providers {
			fmt.Printf("  %-12s %s\n", p, textutils.FormatInt(int64(stats.ByProvider[p])))
		}

		return nil
	},
}

var cacheListOptions struct {
	Limit  int
	Offset int
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cached lookups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := cache.List(cmd.Context(), cacheListOptions.Limit, cacheListOptions.Offset)
		if err != nil {
			return err
		}

		a, b, c, d := strings.Repeat("─", 40), strings.Repeat("─", 24), strings.Repeat("─", 12), strings.Repeat("─", 10)
		fmt.Printf("╭─%-40s─┬─%-24s─┬─%-12s─┬─%-10s─╮\n", a, b, c, d)
		fmt.Printf("│ %-40s │ %-24s │ %-12s │ %-10s │\n", "Query", "Point", "Provider", "Confidence")
		fmt.Printf("├─%-40s─┼─%-24s─┼─%-12s─┼─%-10s─┤\n", a, b, c, d)

		for _, e := range entries {
			point := "not found"
			if e.Point != nil {
				point = fmt.Sprintf("%.5f, %.5f", e.Point.Lat, e.Point.Lng)
			}

			fmt.Printf("│ %-40.40s │ %-24s │ %-12s │ %-10s │\n", e.Query, point, e.Provider, e.Confidence)
		}

		fmt.Printf("╰─%-40s─┴─%-24s─┴─%-12s─┴─%-10s─╯\n", a, b, c, d)

		return nil
	},
}

var cacheClearYes bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached lookup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cacheClearYes {
			return errors.New("refusing to clear the cache without --yes")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := cache.Clear(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("🧹 Removed %s cached lookups\n", textutils.FormatInt(n))

		return nil
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Write every cached lookup to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := geocoding.ExportToJSON(cmd.Context(), cache, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("💾 Exported %s cached lookups to %s\n", textutils.FormatInt(int64(n)), args[0])

		return nil
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Load cached lookups from a JSON file written by export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := geocoding.ImportFromJSON(cmd.Context(), cache, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✅ Imported %s cached lookups\n", textutils.FormatInt(int64(n)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheListCmd.Flags().IntVar(&cacheListOptions.Limit, "limit", 50, "Maximum entries to show")
	cacheListCmd.Flags().IntVar(&cacheListOptions.Offset, "offset", 0, "Entries to skip")
	cacheClearCmd.Flags().BoolVar(&cacheClearYes, "yes", false, "Confirm the removal")
}
