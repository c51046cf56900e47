// Package tables loads the field and past-starts tables from CSV, XLSX or
// JSON records and decodes them into domain models. Feed column names are
// mapped to canonical names on the way in.
package tables

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the cell under column index col, or "" when the row is short.
func (t Table) Cell(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ReadFile loads a table by file extension: .csv, .xlsx or .json.
// XLSX files are read from sheet, or the first sheet when sheet is empty.
func ReadFile(path, sheet string) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return Table{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path, sheet)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return Table{}, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		var records []map[string]any
		if err := json.NewDecoder(f).Decode(&records); err != nil {
			return Table{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return FromRecords(records), nil
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadCSV reads a comma-separated table with a header row.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows)
}

// ReadXLSX reads one sheet of a workbook.
func ReadXLSX(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRows(rows)
}

// FromRecords builds a table from JSON-style records. Headers are the union
// of record keys in sorted order; numbers are formatted without exponent.
func FromRecords(records []map[string]any) Table {
	keys := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			keys[k] = struct{}{}
		}
	}
	t := Table{Headers: make([]string, 0, len(keys))}
	for k := range keys {
		t.Headers = append(t.Headers, k)
	}
	sort.Strings(t.Headers)
	for _, rec := range records {
		row := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			row[i] = cellString(rec[h])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func fromRows(rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, ErrEmptyTable
	}
	t := Table{Headers: make([]string, len(rows[0]))}
	for i, h := range rows[0] {
		t.Headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
