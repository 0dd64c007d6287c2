// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package web serves the interactive shop map and renders it as a standalone
// HTML page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/jcodagnone/shopmap/shops"
	"github.com/jcodagnone/shopmap/spatial"
)

//go:embed templates/*.html
var templatesFS embed.FS

const mapTemplate = "map.html"

// DefaultTitle is the page title when none is configured.
const DefaultTitle = "Shop Locations"

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}

// MapView is the initial position of the map.
type MapView struct {
	Center spatial.Point `json:"center"`
	Zoom   int           `json:"zoom"`
}

// StaticData is the dataset embedded in a standalone page.
type StaticData struct {
	Markers []shops.Marker        `json:"markers"`
	Details []shops.ContactDetail `json:"details"`
}

// View is what the map template renders. Data is nil when the page talks to
// the server API instead.
type View struct {
	Title  string
	Static bool
	Config MapView
	Data   *StaticData
}

// NewStaticView builds the view of a standalone page showing every shop of
// the table. The map is centred on the located shops when there are any.
func NewStaticView(title string, all []*shops.Shop, fallback MapView) View {
	if title == "" {
		title = DefaultTitle
	}

	data := &StaticData{
		Markers: shops.Markers(all, shops.GroupNone),
		Details: make([]shops.ContactDetail, 0, len(all)),
	}

	for _, s := range all {
		data.Details = append(data.Details, shops.Detail(s))
	}

	return View{
		Title:  title,
		Static: true,
		Config: viewFor(shops.Located(all), fallback),
		Data:   data,
	}
}

// viewFor centres the map on the located shops, keeping the zoom.
func viewFor(located []*shops.Shop, fallback MapView) MapView {
	points := make([]spatial.Point, 0, len(located))
	for _, s := range located {
		points = append(points, *s.Point)
	}

	if c, ok := spatial.Centroid(points); ok {
		return MapView{Center: c, Zoom: fallback.Zoom}
	}

	return fallback
}

// Render writes the map page for view to w. A static view produces a page
// that works without the server.
func Render(w io.Writer, view View) error {
	tmpl, err := parseTemplates()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	if view.Title == "" {
		view.Title = DefaultTitle
	}

	if err := tmpl.ExecuteTemplate(w, mapTemplate, view); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	return nil
}
