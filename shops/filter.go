// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package shops

import (
	"github.com/jcodagnone/shopmap/utils/textutils"
)

// Located returns the shops that can be placed on the map.
func Located(shops []*Shop) []*Shop {
	out := make([]*Shop, 0, len(shops))

	for _, s := range shops {
		if s.Located() {
			out = append(out, s)
		}
	}

	return out
}

// Unlocated returns the shops still lacking coordinates.
func Unlocated(shops []*Shop) []*Shop {
	var out []*Shop

	for _, s := range shops {
		if !s.Located() {
			out = append(out, s)
		}
	}

	return out
}

// Search returns the shops whose company, city, state, country or contact
// contains q, ignoring case and accents. A blank q matches every shop.
func Search(shops []*Shop, q string) []*Shop {
	q = textutils.LowerASCIIFolding(q)
	if q == "" {
		return shops
	}

	var out []*Shop

	for _, s := range shops {
		if textutils.ContainsFolded(q, s.Company, s.City, s.State, s.Country, s.Contact) {
			out = append(out, s)
		}
	}

	return out
}
