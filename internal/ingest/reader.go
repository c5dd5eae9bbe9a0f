// Package ingest loads registry files (CSV or XLSX) into a store. Column
// headers are normalized and land areas are converted to hectares here, at
// the boundary; nothing downstream ever sees acres or raw header spellings.
package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// table is a parsed sheet: normalized headers plus data rows.
type table struct {
	headers []string
	rows    [][]string
}

// normalizeHeader canonicalizes a column name: trim, lowercase, spaces to
// underscores. Source files disagree on "Land Size Acres" vs "land_size_acres".
func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// readTable reads a CSV or XLSX file, dispatching on extension.
func readTable(path string) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func readCSV(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return tableFromRecords(records, path)
}

func readXLSX(path string) (*table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s has no sheets", path)
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		records = append(records, cells)
	}
	return tableFromRecords(records, path)
}

func tableFromRecords(records [][]string, path string) (*table, error) {
	if len(records) == 0 {
		return nil, eris.Errorf("ingest: %s is empty", path)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = normalizeHeader(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	return &table{headers: headers, rows: rows}, nil
}

// col returns the index of the first matching column alias, or -1.
func (t *table) col(aliases ...string) int {
	for _, a := range aliases {
		for i, h := range t.headers {
			if h == a {
				return i
			}
		}
	}
	return -1
}

// cell returns the value at (row, col), or "" for out-of-range indexes.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
