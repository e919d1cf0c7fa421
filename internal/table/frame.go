package table

import "fmt"

// Frame is the "framed columnar table" output shape from spec.md §6: the
// same column storage as Table, but row-major access keyed by the pass-
// through index column, for callers that want to look a row up by its
// index value rather than iterate columns.
type Frame struct {
	t        *Table
	rowsByID map[string]int
}

// NewFrame wraps an existing Table as a Frame. The Table must carry a
// non-blank Index column for every row — frames without an index to key
// rows by aren't a meaningful "framed" view.
func NewFrame(t *Table) (*Frame, error) {
	if t.Index == nil {
		return nil, fmt.Errorf("table: cannot frame a result with no index column")
	}
	rowsByID := make(map[string]int, len(t.Index))
	for i, id := range t.Index {
		if id == "" {
			return nil, fmt.Errorf("table: cannot frame a result with blank index values (row %d)", i)
		}
		rowsByID[id] = i
	}
	return &Frame{t: t, rowsByID: rowsByID}, nil
}

// Len returns the row count.
func (f *Frame) Len() int { return f.t.Len() }

// Columns returns the factor column names, in order.
func (f *Frame) Columns() []string { return f.t.Columns }

// Row returns every factor's value at index value id, keyed by column name.
func (f *Frame) Row(id string) (map[string]float64, bool) {
	i, ok := f.rowsByID[id]
	if !ok {
		return nil, false
	}
	row := make(map[string]float64, len(f.t.Columns))
	for _, name := range f.t.Columns {
		row[name] = f.t.data[name][i]
	}
	return row, true
}

// At returns the value of the named column at row index position i, the
// same positional access Table offers, for callers that mix row-keyed and
// positional lookups.
func (f *Frame) At(name string, i int) float64 { return f.t.data[name][i] }

// Unwrap returns the underlying Table for callers that need columnar access.
func (f *Frame) Unwrap() *Table { return f.t }
