// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// KeyDisplayName is the display name of the Google Maps key looked up
// through Application Default Credentials.
const KeyDisplayName = "Shopmap Geocoding Key"

// GeocodingService is the API a created key is restricted to.
const GeocodingService = "geocoding-backend.googleapis.com"

// ErrNoProject is returned when the default credentials carry no project.
var ErrNoProject = errors.New("no project id in default credentials, set google.project")

// ErrKeyNotFound is returned when the project has no key named KeyDisplayName.
var ErrKeyNotFound = errors.New("geocoding key not found")

// keyClient opens the API Keys service with the default credentials and
// resolves the project. projectID overrides the project of the credentials.
func keyClient(ctx context.Context, projectID string) (*apikeys.Client, string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, "", fmt.Errorf("finding default credentials: %w", err)
	}

	if projectID == "" {
		projectID = creds.ProjectID
	}

	if projectID == "" {
		// user credentials without a quota project
		return nil, "", ErrNoProject
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("creating apikeys client: %w", err)
	}

	return client, projectID, nil
}

func keyParent(projectID string) string {
	return fmt.Sprintf("projects/%s/locations/global", projectID)
}

// findKey returns the secret of the KeyDisplayName key of the project.
func findKey(ctx context.Context, client *apikeys.Client, projectID string) (string, error) {
	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{Parent: keyParent(projectID)})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != KeyDisplayName {
			continue
		}

		// ListKeys redacts the secret, GetKeyString returns it.
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' found but KeyString is empty", KeyDisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("%w: no key named '%s' in project %s", ErrKeyNotFound, KeyDisplayName, projectID)
}

// APIKeyFromADC retrieves the Google Maps key named KeyDisplayName from the
// API Keys service of the project found in Application Default Credentials.
func APIKeyFromADC(ctx context.Context, projectID string) (string, error) {
	client, projectID, err := keyClient(ctx, projectID)
	if err != nil {
		return "", err
	}
	defer client.Close()

	return findKey(ctx, client, projectID)
}

// EnsureAPIKey returns the KeyDisplayName key of the project, creating it
// restricted to the Geocoding API when it does not exist yet.
func EnsureAPIKey(ctx context.Context, projectID string) (key string, created bool, err error) {
	client, projectID, err := keyClient(ctx, projectID)
	if err != nil {
		return "", false, err
	}
	defer client.Close()

	key, err = findKey(ctx, client, projectID)
	if err == nil || !errors.Is(err, ErrKeyNotFound) {
		return key, false, err
	}

	log.Printf("Creating API key '%s'...", KeyDisplayName)

	op, err := client.CreateKey(ctx, &apikeyspb.CreateKeyRequest{
		Parent: keyParent(projectID),
		Key: &apikeyspb.Key{
			DisplayName: KeyDisplayName,
			Restrictions: &apikeyspb.Restrictions{
				ApiTargets: []*apikeyspb.ApiTarget{{Service: GeocodingService}},
			},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to create API key: %w", err)
	}

	k, err := op.Wait(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to wait for API key creation: %w", err)
	}

	return k.KeyString, true, nil
}
