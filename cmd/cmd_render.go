// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/jcodagnone/shopmap/shops"
	"github.com/jcodagnone/shopmap/spatial"
	"github.com/jcodagnone/shopmap/web"
	"github.com/spf13/cobra"
)

var renderOptions struct {
	Output  string
	Title   string
	Geocode bool
}

var renderCmd = &cobra.Command{
	Use:   "render <file.xlsx>",
	Short: "Write a standalone interactive HTML map of a spreadsheet",
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

		if renderOptions.Geocode {
			db, cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			g, err := newGeocoder(cmd.Context(), cfg, cache)
			if err != nil {
				return err
			}

			stats, err := geocoding.NewEnricher(g).Enrich(cmd.Context(), table.Shops, progress("Geocoding"))
			if err != nil {
				return fmt.Errorf("geocoding: %w", err)
			}

			fmt.Printf("✅ %s\n", stats)
		}

		located := shops.Located(table.Shops)
		if dropped := len(table.Shops) - len(located); dropped > 0 {
			fmt.Printf("⚠️  %d rows without coordinates are listed but not placed on the map\n", dropped)
		}

		view := web.NewStaticView(renderOptions.Title, table.Shops, web.MapView{
			Center: spatial.Point{Lat: cfg.Map.CenterLat, Lng: cfg.Map.CenterLon},
			Zoom:   cfg.Map.Zoom,
		})

		var buf bytes.Buffer
		if err := web.Render(&buf, view); err != nil {
			return err
		}

		if err := os.WriteFile(renderOptions.Output, buf.Bytes(), 0o644); err != nil { //nolint:gosec // a web page
			return fmt.Errorf("writing %s: %w", renderOptions.Output, err)
		}

		fmt.Printf("🗺️  %d shops written to %s\n", len(located), renderOptions.Output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOptions.Output, "output", "o", "map.html", "HTML file to write")
	renderCmd.Flags().StringVar(&renderOptions.Title, "title", web.DefaultTitle, "Page title")
	renderCmd.Flags().BoolVar(&renderOptions.Geocode, "geocode", false, "Geocode rows lacking coordinates before rendering")
	renderCmd.Flags().Float64("center-lat", 50, "Map centre latitude when no shop is located")
	renderCmd.Flags().Float64("center-lon", 10, "Map centre longitude when no shop is located")
	renderCmd.Flags().Int("zoom", 4, "Initial zoom level")
	bindFlag(renderCmd, "map.center_lat", "center-lat")
	bindFlag(renderCmd, "map.center_lon", "center-lon")
	bindFlag(renderCmd, "map.zoom", "zoom")
}
