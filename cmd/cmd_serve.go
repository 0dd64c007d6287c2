// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/jcodagnone/shopmap/spatial"
	"github.com/jcodagnone/shopmap/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive map web app (local only)",
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

		g, err := newGeocoder(cmd.Context(), cfg, cache)
		if err != nil {
			return err
		}

		server, err := web.NewServer(web.Options{
			DataFile: cfg.Data.File,
			Map: web.MapView{
				Center: spatial.Point{Lat: cfg.Map.CenterLat, Lng: cfg.Map.CenterLon},
				Zoom:   cfg.Map.Zoom,
			},
		}, geocoding.NewEnricher(g))
		if err != nil {
			return err
		}
		defer server.Close()

		if err := server.LoadPrevious(); err != nil {
			log.Printf("⚠️ ignoring previous data: %v", err)
		}

		fmt.Printf("🗺️  Serving on http://%s\n", cfg.Server.Addr)

		if err := server.Run(cmd.Context(), cfg.Server.Addr); err != nil {
			return err
		}

		fmt.Println("👋 Stopped")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "localhost:8080", "Listen address")
	serveCmd.Flags().String("data-file", "shop_data.xlsx", "Spreadsheet kept between runs")
	bindFlag(serveCmd, "server.addr", "addr")
	bindFlag(serveCmd, "data.file", "data-file")
}
