// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"testing"

	"github.com/jcodagnone/shopmap/shops"
	"github.com/jcodagnone/shopmap/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStaticView(t *testing.T) {
	all := []*shops.Shop{
		{Row: 2, Company: "Acme", City: "Berlin", Country: "Germany", Point: &spatial.Point{Lat: 52, Lng: 13}},
		{Row: 3, Company: "Bolt", City: "Munich", Country: "Germany", Point: &spatial.Point{Lat: 48, Lng: 11}},
		{Row: 4, Company: "Ghost", City: "Atlantis"},
	}

	view := NewStaticView("", all, MapView{Center: spatial.Point{Lat: 1, Lng: 1}, Zoom: 5})
	assert.Equal(t, DefaultTitle, view.Title)
	assert.True(t, view.Static)
	assert.Equal(t, MapView{Center: spatial.Point{Lat: 50, Lng: 12}, Zoom: 5}, view.Config)
	require.NotNil(t, view.Data)
	assert.Len(t, view.Data.Markers, 2)
	assert.Len(t, view.Data.Details, 3)

	empty := NewStaticView("Mine", nil, MapView{Center: spatial.Point{Lat: 1, Lng: 1}, Zoom: 5})
	assert.Equal(t, spatial.Point{Lat: 1, Lng: 1}, empty.Config.Center)
}

func TestRender(t *testing.T) {
	all := []*shops.Shop{
		{Row: 2, Company: "Smith & <Sons>", City: "Köln", Country: "Germany", Point: &spatial.Point{Lat: 50.94, Lng: 6.96}},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewStaticView("Partners </title>", all, MapView{Zoom: 4})))

	page := buf.String()
	assert.Contains(t, page, "<title>Partners &lt;/title&gt;</title>")
	assert.NotContains(t, page, `id="upload"`)
	assert.Contains(t, page, `"markers":[`)
	assert.Contains(t, page, `"lat":50.94`)
	assert.NotContains(t, page, "<Sons>", "data must be escaped inside the script")
}

func TestRenderMarkerScript(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewStaticView("", nil, MapView{Zoom: 4})))

	page := buf.String()

	// company names go in as text, never as tooltip markup
	assert.Contains(t, page, "tip.textContent = m.company;")
	assert.Contains(t, page, ".bindTooltip(tip)")

	// static groups count located markers only, like /api/shops
	assert.Contains(t, page, "markers.forEach((m) => {\n      const g = groups.get(fold(m.group))")
	assert.NotContains(t, page, "STATIC.details.filter((d) => rows.has(d.row))")
}
