// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package shops holds the shop records read from a spreadsheet and the few
// rules applied to them before they reach the map: dropping rows without
// coordinates, searching, grouping and clustering.
package shops

import (
	"strings"

	"github.com/jcodagnone/shopmap/spatial"
	"github.com/xuri/excelize/v2"
)

// Column names as written back to the spreadsheet.
const (
	ColumnCompany   = "Company"
	ColumnCity      = "City"
	ColumnCountry   = "Country"
	ColumnState     = "State"
	ColumnAddress   = "Address"
	ColumnContact   = "Contact"
	ColumnEmail     = "Email"
	ColumnPhone     = "Phone"
	ColumnWebsite   = "Website"
	ColumnLatitude  = "Latitude"
	ColumnLongitude = "Longitude"
)

// RequiredColumns must be present in every spreadsheet.
var RequiredColumns = []string{ColumnCompany, ColumnCity, ColumnCountry}

// columnAliases maps a lowercased header to the column it feeds.
var columnAliases = map[string]string{
	"company":        ColumnCompany,
	"city":           ColumnCity,
	"country":        ColumnCountry,
	"state":          ColumnState,
	"province":       ColumnState,
	"region":         ColumnState,
	"address":        ColumnAddress,
	"street":         ColumnAddress,
	"contact":        ColumnContact,
	"contact name":   ColumnContact,
	"contact person": ColumnContact,
	"email":          ColumnEmail,
	"e-mail":         ColumnEmail,
	"phone":          ColumnPhone,
	"telephone":      ColumnPhone,
	"tel":            ColumnPhone,
	"website":        ColumnWebsite,
	"web":            ColumnWebsite,
	"url":            ColumnWebsite,
	"latitude":       ColumnLatitude,
	"lat":            ColumnLatitude,
	"longitude":      ColumnLongitude,
	"lon":            ColumnLongitude,
	"lng":            ColumnLongitude,
}

// canonicalColumn returns the known column a header maps to, or "".
func canonicalColumn(header string) string {
	return columnAliases[strings.ToLower(strings.TrimSpace(header))]
}

// Field is a spreadsheet column not modelled by Shop.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Shop is one spreadsheet row. Row is the 1-based spreadsheet row number and
// identifies the shop in the API.
type Shop struct {
	Row     int            `json:"row"`
	Company string         `json:"company"`
	City    string         `json:"city"`
	Country string         `json:"country"`
	State   string         `json:"state,omitempty"`
	Address string         `json:"address,omitempty"`
	Contact string         `json:"contact,omitempty"`
	Email   string         `json:"email,omitempty"`
	Phone   string         `json:"phone,omitempty"`
	Website string         `json:"website,omitempty"`
	Point   *spatial.Point `json:"point,omitempty"`
	Extra   []Field        `json:"extra,omitempty"`
}

// Located reports whether the shop has usable coordinates.
func (s *Shop) Located() bool {
	return s.Point != nil && s.Point.Valid()
}

// Table is the content of the first sheet of a workbook.
type Table struct {
	Sheet   string
	Headers []string
	Shops   []*Shop

	columns map[string]int // canonical name -> 0-based header index
	book    *excelize.File
}

// HasColumn reports whether the sheet carries the given canonical column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]

	return ok
}

// Find returns the shop at the given spreadsheet row.
func (t *Table) Find(row int) (*Shop, bool) {
	for _, s := range t.Shops {
		if s.Row == row {
			return s, true
		}
	}

	return nil, false
}

// Close releases the underlying workbook.
func (t *Table) Close() error {
	if t.book == nil {
		return nil
	}

	return t.book.Close()
}
