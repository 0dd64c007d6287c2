// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/jcodagnone/shopmap/geocoding"
	"github.com/spf13/cobra"
)

var googleKeyCmd = &cobra.Command{
	Use:   "google-key",
	Short: "Find or create the Google Maps geocoding key of a Google Cloud project",
	Long: `
google-key uses Application Default Credentials to look for the API key named
"` + geocoding.KeyDisplayName + `" and creates it, restricted to the Geocoding
API, when the project does not have one. With the key in place the google
geocoder works without google.api_key.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		_, created, err := geocoding.EnsureAPIKey(cmd.Context(), cfg.Google.Project)
		if err != nil {
			return err
		}

		if created {
			fmt.Printf("✅ API key '%s' created\n", geocoding.KeyDisplayName)
		} else {
			fmt.Printf("✅ API key '%s' already exists\n", geocoding.KeyDisplayName)
		}

		fmt.Println("👉 Run with --geocoder google, the key is retrieved through ADC")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(googleKeyCmd)
	googleKeyCmd.Flags().String("project", "", "Google Cloud project (default: the ADC project)")
	bindFlag(googleKeyCmd, "google.project", "project")
}
