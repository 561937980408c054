package table

import (
	"encoding/csv"
	"io"
	"strings"
)

// Table is an ordered collection of rows keyed by normalized column names.
// Column names are lowercased and trimmed on construction and are unique
// within a table; a duplicate header after normalization is dropped.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New builds an empty table with the given column headers. Headers are
// normalized (lowercase, trimmed); duplicates and blanks are skipped.
func New(headers []string) *Table {
	t := &Table{index: make(map[string]int)}
	for _, h := range headers {
		name := Normalize(h)
		if name == "" {
			continue
		}
		if _, dup := t.index[name]; dup {
			continue
		}
		t.index[name] = len(t.cols)
		t.cols = append(t.cols, name)
	}
	return t
}

// Normalize applies the table's column-name normalization to a header.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return t.cols
}

// HasColumn reports whether the normalized name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[Normalize(name)]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// AppendRow adds a row. Short rows are padded with missing cells; long
// rows are truncated to the column count.
func (t *Table) AppendRow(cells []Value) {
	row := make([]Value, len(t.cols))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.rows = append(t.rows, row)
}

// Value returns the cell at (row, col); missing when out of range or the
// column does not exist.
func (t *Table) Value(row int, col string) Value {
	idx, ok := t.index[Normalize(col)]
	if !ok || row < 0 || row >= len(t.rows) {
		return Missing()
	}
	return t.rows[row][idx]
}

// Column returns all cells of a column in row order, or nil when the
// column does not exist.
func (t *Table) Column(col string) []Value {
	idx, ok := t.index[Normalize(col)]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out
}

// Select returns a new table keeping rows where mask is true. The mask
// must align with the row order; extra entries are ignored.
func (t *Table) Select(mask []bool) *Table {
	out := &Table{cols: t.cols, index: t.index}
	for i, row := range t.rows {
		if i < len(mask) && mask[i] {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// WriteCSV writes the table as CSV: a header row then stringified cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.cols); err != nil {
		return err
	}
	record := make([]string, len(t.cols))
	for _, row := range t.rows {
		for i, cell := range row {
			record[i] = cell.Text()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
