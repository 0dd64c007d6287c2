// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the shopmap settings from flags, environment and an
// optional shopmap.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted by geocoder.provider.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// Config holds the full application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	DB       DBConfig       `mapstructure:"db"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Google   GoogleConfig   `mapstructure:"google"`
	Server   ServerConfig   `mapstructure:"server"`
	Map      MapConfig      `mapstructure:"map"`
}

// DataConfig points at the spreadsheet persisted by the web app.
type DataConfig struct {
	File string `mapstructure:"file"`
}

// DBConfig locates the geocode cache.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// GeocoderConfig configures the lookup of rows without coordinates.
type GeocoderConfig struct {
	Provider     string        `mapstructure:"provider"`
	UserAgent    string        `mapstructure:"user_agent"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Retries      int           `mapstructure:"retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	Rate         float64       `mapstructure:"rate"`
	TraceHTTP    bool          `mapstructure:"trace_http"`
}

// GoogleConfig holds Google Maps credentials.
type GoogleConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Project string `mapstructure:"project"` // used to find the key through ADC
}

// ServerConfig configures the local web app.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MapConfig is the initial map view.
type MapConfig struct {
	CenterLat float64 `mapstructure:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon"`
	Zoom      int     `mapstructure:"zoom"`
}

// DBFile is the duckdb file inside DB.Path.
const DBFile = "shopmap.duckdb"

// New returns a viper instance with defaults, env binding and the optional
// config file search path already set.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("shopmap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SHOPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.file", "shop_data.xlsx")
	v.SetDefault("db.path", "db")
	v.SetDefault("geocoder.provider", ProviderNominatim)
	v.SetDefault("geocoder.user_agent", "shop_locator")
	v.SetDefault("geocoder.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.retries", 3)
	v.SetDefault("geocoder.retry_delay", time.Second)
	v.SetDefault("geocoder.rate", 1.0)
	v.SetDefault("geocoder.trace_http", false)
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.project", "")
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("map.center_lat", 50.0)
	v.SetDefault("map.center_lon", 10.0)
	v.SetDefault("map.zoom", 4)

	return v
}

// Load reads the optional config file and decodes every source into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Geocoder.Provider {
	case ProviderNominatim, ProviderGoogle:
	default:
		return fmt.Errorf("unknown geocoder provider %q (want %s or %s)",
			c.Geocoder.Provider, ProviderNominatim, ProviderGoogle)
	}

	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("geocoder timeout must be positive (got %s)", c.Geocoder.Timeout)
	}

	if c.Geocoder.Rate <= 0 {
		return fmt.Errorf("geocoder rate must be positive (got %g)", c.Geocoder.Rate)
	}

	if c.Geocoder.Retries < 0 {
		return fmt.Errorf("geocoder retries can't be negative (got %d)", c.Geocoder.Retries)
	}

	if c.Map.Zoom < 0 || c.Map.Zoom > 18 {
		return fmt.Errorf("map zoom must be between 0 and 18 (got %d)", c.Map.Zoom)
	}

	if strings.TrimSpace(c.Data.File) == "" {
		return errors.New("data file can't be empty")
	}

	return nil
}
