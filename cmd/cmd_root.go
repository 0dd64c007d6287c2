// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/jcodagnone/shopmap/config"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// settings is shared by every command, flags are bound to its keys.
var settings = config.New()

var configFile string

var rootCmd = &cobra.Command{
	Use:   "shopmap",
	Short: "shop locations on an interactive map",
	Long: `
shopmap reads a spreadsheet of shops, looks up the coordinates of the rows
that lack them and shows everything on an interactive map with grouping,
search and a contact detail panel.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	// a second interrupt kills the process
	go func() {
		<-ctx.Done()
		stop()
	}()

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration once flags have been parsed.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		settings.SetConfigFile(configFile)
	}

	return config.Load(settings)
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := settings.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func bindPersistentFlag(cmd *cobra.Command, key, flag string) {
	if err := settings.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default ./shopmap.yaml when present)")
	pf.String("db-path", "db", "Directory holding the geocode cache")
	pf.String("geocoder", config.ProviderNominatim, "Geocoding provider: nominatim or google")
	pf.String("user-agent", "shop_locator", "User-Agent sent to Nominatim")
	pf.Duration("timeout", 10*time.Second, "Timeout of each geocoding request")
	pf.Int("retries", 3, "How many times a timed out lookup is retried")
	pf.Float64("rate", 1, "Maximum geocoding requests per second")
	pf.Bool("trace-http", false, "Dump geocoding requests and responses to stderr")
	pf.String("google-api-key", "", "Google Maps API key (looked up through ADC when empty)")

	for key, flag := range map[string]string{
		"db.path":             "db-path",
		"geocoder.provider":   "geocoder",
		"geocoder.user_agent": "user-agent",
		"geocoder.timeout":    "timeout",
		"geocoder.retries":    "retries",
		"geocoder.rate":       "rate",
		"geocoder.trace_http": "trace-http",
		"google.api_key":      "google-api-key",
	} {
		bindPersistentFlag(rootCmd, key, flag)
	}
}
