// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package shops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jcodagnone/shopmap/spatial"
	"github.com/jcodagnone/shopmap/utils/textutils"
)

// GroupMode selects how shops are grouped on the map.
type GroupMode string

// Supported group modes.
const (
	GroupNone    GroupMode = "none"
	GroupCountry GroupMode = "country"
	GroupState   GroupMode = "state"
)

// UnknownLabel names the group of shops with an empty key.
const UnknownLabel = "Unknown"

// ParseGroupMode parses a group mode, accepting a blank string as GroupNone.
func ParseGroupMode(s string) (GroupMode, error) {
	switch m := GroupMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", GroupNone:
		return GroupNone, nil
	case GroupCountry, GroupState:
		return m, nil
	default:
		return "", fmt.Errorf("unknown group mode %q, expected none, country or state", s)
	}
}

// Group is a set of shops sharing a country, or a state within a country.
type Group struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Count  int            `json:"count"`
	Center *spatial.Point `json:"center,omitempty"`
	Rows   []int          `json:"rows"`
}

// GroupLabel returns the label the shop is grouped under for the mode.
// In GroupState mode a shop without a state falls back to its country.
func GroupLabel(s *Shop, mode GroupMode) string {
	var label string

	switch mode {
	case GroupCountry:
		label = s.Country
	case GroupState:
		if s.State != "" && s.Country != "" {
			label = s.State + ", " + s.Country
		} else if s.State != "" {
			label = s.State
		} else {
			label = s.Country
		}
	default:
		return ""
	}

	if label == "" {
		return UnknownLabel
	}

	return label
}

// GroupBy groups the shops by mode, largest groups first. GroupNone yields
// no groups.
func GroupBy(shops []*Shop, mode GroupMode) []Group {
	if mode == GroupNone || mode == "" {
		return nil
	}

	byKey := make(map[string]*Group)
	points := make(map[string][]spatial.Point)

	var keys []string

	for _, s := range shops {
		label := GroupLabel(s, mode)
		key := textutils.LowerASCIIFolding(label)

		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, Label: label}
			byKey[key] = g
			keys = append(keys, key)
		}

		g.Count++
		g.Rows = append(g.Rows, s.Row)

		if s.Located() {
			points[key] = append(points[key], *s.Point)
		}
	}

	groups := make([]Group, 0, len(keys))

	for _, k := range keys {
		g := byKey[k]
		if c, ok := spatial.Centroid(points[k]); ok {
			g.Center = &c
		}

		groups = append(groups, *g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}

		return groups[i].Label < groups[j].Label
	})

	return groups
}
