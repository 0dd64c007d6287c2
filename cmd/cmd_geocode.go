// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/jcodagnone/shopmap/shops"
	"github.com/spf13/cobra"
)

var geocodeOptions struct {
	Output string
	DryRun bool
}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <file.xlsx>",
	Short: "Look up the rows lacking coordinates and save the spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		table, err := shops.OpenWorkbook(args[0])
		if err != nil {
			return err
		}
		defer table.Close()

		db, cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		g, err := newGeocoder(cmd.Context(), cfg, cache)
		if err != nil {
			return err
		}

		fmt.Printf("📄 %s: %d rows, %d without coordinates\n",
			args[0], len(table.Shops), len(shops.Unlocated(table.Shops)))

		stats, err := geocoding.NewEnricher(g).Enrich(cmd.Context(), table.Shops, progress("Geocoding"))

		refused := errors.Is(err, geocoding.ErrServiceRefused)
		if err != nil && !refused {
			return fmt.Errorf("geocoding: %w", err)
		}

		if refused {
			// keep what was found, the cache makes the next run resume there
			fmt.Printf("⚠️ %v\n", err)
			fmt.Printf("⚠️ partial: %s\n", stats)
		} else {
			fmt.Printf("✅ %s\n", stats)
		}

		if geocodeOptions.DryRun {
			if refused {
				return fmt.Errorf("geocoding: %w", err)
			}

			return nil
		}

		out := geocodeOptions.Output
		if out == "" {
			out = args[0]
		}

		if err := shops.SaveWorkbook(out, table); err != nil {
			return fmt.Errorf("saving %s: %w", out, err)
		}

		fmt.Printf("💾 Saved %s\n", out)

		if refused {
			return fmt.Errorf("geocoding: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.Flags().StringVarP(&geocodeOptions.Output, "output", "o", "", "Where to save the result (default: overwrite the input)")
	geocodeCmd.Flags().BoolVar(&geocodeOptions.DryRun, "dry-run", false, "Geocode without saving the spreadsheet")
}
