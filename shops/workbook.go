// Copyright 2025 The Shopmap Authors
// SPDX-License-Identifier: Apache-2.0

package shops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jcodagnone/shopmap/spatial"
	"github.com/jcodagnone/shopmap/utils/htmlutils"
	"github.com/xuri/excelize/v2"
)

// MissingColumnsMessage is shown to users whose spreadsheet lacks a required column.
const MissingColumnsMessage = "The file must contain at least 'Company', 'City', and 'Country' columns."

// Common errors returned when reading or writing workbooks.
var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoSheet        = errors.New("workbook has no sheets")
	ErrNoWorkbook     = errors.New("table is not backed by a workbook")
)

// MissingColumnsError lists the required columns a header row lacks.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}

// ValidateColumns checks that every required column is present in the headers.
func ValidateColumns(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[canonicalColumn(h)] = true
	}

	var missing []string

	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}

	return nil
}

// OpenWorkbook reads the first sheet of the workbook at path.
func OpenWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}

	return fromBook(f)
}

// ReadWorkbook reads the first sheet of a workbook from r.
func ReadWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}

	return fromBook(f)
}

func fromBook(f *excelize.File) (*Table, error) {
	t, err := readTable(f)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	return t, nil
}

func readTable(f *excelize.File) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", sheet, err)
	}

	// coordinates are read unformatted so a "0.00" number format does not
	// round them away
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading raw rows of %s: %w", sheet, err)
	}

	var headers []string
	if len(rows) > 0 {
		headers = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			headers[i] = strings.TrimSpace(h)
		}
	}

	if err := ValidateColumns(headers); err != nil {
		return nil, err
	}

	t := &Table{
		Sheet:   sheet,
		Headers: headers,
		columns: make(map[string]int),
		book:    f,
	}

	for i, h := range headers {
		if c := canonicalColumn(h); c != "" {
			if _, dup := t.columns[c]; !dup {
				t.columns[c] = i
			}
		}
	}

	for i := 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}

		var rawRow []string
		if i < len(raw) {
			rawRow = raw[i]
		}

		t.Shops = append(t.Shops, t.newShop(i+1, rows[i], rawRow))
	}

	return t, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return row[idx]
}

func (t *Table) newShop(rowNum int, row, raw []string) *Shop {
	get := func(column string) string {
		idx, ok := t.columns[column]
		if !ok {
			return ""
		}

		return htmlutils.CleanText(cellAt(row, idx))
	}

	s := &Shop{
		Row:     rowNum,
		Company: get(ColumnCompany),
		City:    get(ColumnCity),
		Country: get(ColumnCountry),
		State:   get(ColumnState),
		Address: get(ColumnAddress),
		Contact: get(ColumnContact),
		Email:   get(ColumnEmail),
		Phone:   get(ColumnPhone),
		Website: get(ColumnWebsite),
	}

	latIdx, okLat := t.columns[ColumnLatitude]
	lngIdx, okLng := t.columns[ColumnLongitude]

	if okLat && okLng {
		lat, err1 := parseCoordinate(cellAt(raw, latIdx))
		lng, err2 := parseCoordinate(cellAt(raw, lngIdx))

		if err1 == nil && err2 == nil {
			p := spatial.Point{Lat: lat, Lng: lng}
			if p.Valid() {
				s.Point = &p
			}
		}
	}

	for i, h := range t.Headers {
		if c := canonicalColumn(h); c != "" && t.columns[c] == i {
			continue
		}

		v := htmlutils.CleanText(cellAt(row, i))
		if v == "" {
			continue
		}

		name := h
		if name == "" {
			name, _ = excelize.ColumnNumberToName(i + 1)
		}

		s.Extra = append(s.Extra, Field{Name: name, Value: v})
	}

	return s
}

var errEmptyCoordinate = errors.New("empty")

// parseCoordinate accepts both a dot and a comma as decimal separator.
func parseCoordinate(val string) (float64, error) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, errEmptyCoordinate
	}

	return strconv.ParseFloat(val, 64)
}

// ensureCoordinateColumns appends Latitude and Longitude headers when missing.
func (t *Table) ensureCoordinateColumns() error {
	for _, name := range []string{ColumnLatitude, ColumnLongitude} {
		if t.HasColumn(name) {
			continue
		}

		idx := len(t.Headers)

		cell, err := excelize.CoordinatesToCellName(idx+1, 1)
		if err != nil {
			return err
		}

		if err := t.book.SetCellValue(t.Sheet, cell, name); err != nil {
			return fmt.Errorf("adding %s column: %w", name, err)
		}

		t.Headers = append(t.Headers, name)
		t.columns[name] = idx
	}

	return nil
}

// WriteWorkbook writes the workbook behind t to w, with the coordinates of
// every located shop stored in the Latitude and Longitude columns. Everything
// else in the workbook is left as it was read.
func WriteWorkbook(w io.Writer, t *Table) error {
	if t.book == nil {
		return ErrNoWorkbook
	}

	if err := t.ensureCoordinateColumns(); err != nil {
		return err
	}

	latCol, lngCol := t.columns[ColumnLatitude]+1, t.columns[ColumnLongitude]+1

	for _, s := range t.Shops {
		latCell, err := excelize.CoordinatesToCellName(latCol, s.Row)
		if err != nil {
			return err
		}

		lngCell, err := excelize.CoordinatesToCellName(lngCol, s.Row)
		if err != nil {
			return err
		}

		if !s.Located() {
			// unlocated rows are left blank
			if err := t.book.SetCellValue(t.Sheet, latCell, nil); err != nil {
				return fmt.Errorf("clearing %s: %w", latCell, err)
			}

			if err := t.book.SetCellValue(t.Sheet, lngCell, nil); err != nil {
				return fmt.Errorf("clearing %s: %w", lngCell, err)
			}

			continue
		}

		if err := t.book.SetCellFloat(t.Sheet, latCell, s.Point.Lat, -1, 64); err != nil {
			return fmt.Errorf("writing %s: %w", latCell, err)
		}

		if err := t.book.SetCellFloat(t.Sheet, lngCell, s.Point.Lng, -1, 64); err != nil {
			return fmt.Errorf("writing %s: %w", lngCell, err)
		}
	}

	if err := t.book.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

// SaveWorkbook writes t to path through a temporary file so a failed save
// never truncates the previous content.
func SaveWorkbook(path string, t *Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".shopmap-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteWorkbook(tmp, t); err != nil {
		_ = tmp.Close()

		return err
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}
