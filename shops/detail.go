// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package shops

import (
	"fmt"
	"html"
	"strings"

	"github.com/jcodagnone/shopmap/spatial"
)

// ContactDetail is what the detail panel shows for one shop.
type ContactDetail struct {
	Row      int            `json:"row"`
	Company  string         `json:"company"`
	Location string         `json:"location"`
	City     string         `json:"city"`
	State    string         `json:"state,omitempty"`
	Country  string         `json:"country"`
	Address  string         `json:"address,omitempty"`
	Contact  string         `json:"contact,omitempty"`
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Website  string         `json:"website,omitempty"`
	Point    *spatial.Point `json:"point,omitempty"`
	Extra    []Field        `json:"extra,omitempty"`
}

// Detail builds the detail panel payload for s.
func Detail(s *Shop) ContactDetail {
	d := ContactDetail{
		Row:      s.Row,
		Company:  s.Company,
		Location: LocationLine(s),
		City:     s.City,
		State:    s.State,
		Country:  s.Country,
		Address:  s.Address,
		Contact:  s.Contact,
		Email:    s.Email,
		Phone:    s.Phone,
		Website:  websiteURL(s.Website),
		Extra:    s.Extra,
	}

	if s.Located() {
		p := *s.Point
		d.Point = &p
	}

	return d
}

// LocationLine joins city, state and country, skipping blanks.
func LocationLine(s *Shop) string {
	parts := make([]string, 0, 3)

	for _, p := range []string{s.City, s.State, s.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

func websiteURL(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}

	lower := strings.ToLower(site)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return site
	}

	return "https://" + site
}

// Popup returns the escaped HTML shown in a marker popup.
func Popup(s *Shop) string {
	return fmt.Sprintf("<b>%s</b><br>%s, %s<br>",
		html.EscapeString(s.Company), html.EscapeString(s.City), html.EscapeString(s.Country))
}

// Marker is a located shop as sent to the map.
type Marker struct {
	Row     int     `json:"row"`
	Company string  `json:"company"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Popup   string  `json:"popup"`
	Group   string  `json:"group,omitempty"`
}

// Markers converts the located shops to map markers, labelling each with its
// group for mode.
func Markers(shops []*Shop, mode GroupMode) []Marker {
	located := Located(shops)
	out := make([]Marker, 0, len(located))

	for _, s := range located {
		out = append(out, Marker{
			Row:     s.Row,
			Company: s.Company,
			City:    s.City,
			Country: s.Country,
			State:   s.State,
			Lat:     s.Point.Lat,
			Lng:     s.Point.Lng,
			Popup:   Popup(s),
			Group:   GroupLabel(s, mode),
		})
	}

	return out
}
