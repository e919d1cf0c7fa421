// Package table holds the replay engine's output: one float64 column per
// factor, concatenated across data sources in the caller's order, with an
// optional pass-through index column and row trimming to the first row
// every factor is ready for (spec.md §6 "Output").
package table

import "fmt"

// Table is a columnar result set. All columns (and Index, if present) share
// the same row count.
type Table struct {
	Columns []string
	data    map[string][]float64
	Index   []string
	nrows   int
}

// New creates an empty Table for the given factor column names, in order.
func New(columns []string) *Table {
	data := make(map[string][]float64, len(columns))
	for _, c := range columns {
		data[c] = nil
	}
	return &Table{Columns: append([]string(nil), columns...), data: data}
}

// Len returns the current row count.
func (t *Table) Len() int { return t.nrows }

// Column returns the named output column.
func (t *Table) Column(name string) []float64 { return t.data[name] }

// AppendSource appends one data source's worth of rows: values holds one
// []float64 per column (same order as t.Columns, same length as each
// other), and index is the source's pass-through index column, or nil.
func (t *Table) AppendSource(values [][]float64, index []string) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("table: got %d columns, expected %d", len(values), len(t.Columns))
	}
	n := -1
	for i, col := range values {
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return fmt.Errorf("table: column %q has %d rows, column %q has %d", t.Columns[0], n, t.Columns[i], len(col))
		}
	}
	if index != nil && len(index) != n {
		return fmt.Errorf("table: index has %d rows, columns have %d", len(index), n)
	}
	for i, name := range t.Columns {
		t.data[name] = append(t.data[name], values[i]...)
	}
	if index != nil {
		t.Index = append(t.Index, index...)
	} else if t.Index != nil {
		// a prior source carried an index column and this one doesn't: pad
		// with empty strings so row alignment is preserved.
		blanks := make([]string, n)
		t.Index = append(t.Index, blanks...)
	}
	t.nrows += n
	return nil
}

// Trim drops every row before offset (the maximum ready_offset across all
// factors, per source, per spec.md §6's trim option). offset is clamped to
// [0, Len()].
func (t *Table) Trim(offset int) {
	if offset <= 0 {
		return
	}
	if offset > t.nrows {
		offset = t.nrows
	}
	for _, name := range t.Columns {
		t.data[name] = t.data[name][offset:]
	}
	if t.Index != nil {
		t.Index = t.Index[offset:]
	}
	t.nrows -= offset
}
