package normalize

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// table is a parsed CSV: a header→index map plus the raw data rows. Column
// lookups are case-insensitive and whitespace-trimmed, matching the
// duck-typed access the upstream publisher's CSVs require (headers vary in
// case across report families).
type table struct {
	index map[string]int
	rows  [][]string
}

func parseCSV(data []byte) (*table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // tolerate ragged rows; missing trailing fields become ""
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return &table{index: map[string]int{}}, nil
		}
		return nil, err
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeColumn(h)] = i
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}

	return &table{index: idx, rows: rows}, nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// requireColumns returns a *SchemaError for the first of cols absent from
// the header.
func (t *table) requireColumns(transformerTag string, cols ...string) error {
	for _, c := range cols {
		if _, ok := t.index[normalizeColumn(c)]; !ok {
			return &SchemaError{TransformerTag: transformerTag, Column: c}
		}
	}
	return nil
}

// get returns the value of column name in row, or "" if the column is
// absent (unknown/missing-optional columns are not an error, per spec.md
// §4.3).
func (t *table) get(row []string, name string) string {
	i, ok := t.index[normalizeColumn(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *table) has(name string) bool {
	_, ok := t.index[normalizeColumn(name)]
	return ok
}

// columnsExcluding returns the normalized (lowercased, trimmed) header
// column names that are not in exclude — used by the load-forecast
// wide→long reshape to enumerate zone columns.
func (t *table) columnsExcluding(exclude ...string) []string {
	excludeSet := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excludeSet[normalizeColumn(e)] = true
	}
	out := make([]string, 0, len(t.index))
	for col := range t.index {
		if !excludeSet[col] {
			out = append(out, col)
		}
	}
	return out
}
