package batch

import "fmt"

// MemorySource is a batch.Source over in-memory columns, sized to a fixed
// batch length. It is the reference adapter the test suite and the demo
// entry point (cmd/factorreplay) use; production sources live outside the
// core (internal/sources).
type MemorySource struct {
	columns   map[string][]float64
	index     []string
	batchSize int
	cursor    int
	nrows     int
}

// NewMemorySource builds a MemorySource from equal-length columns. Panics if
// the columns disagree in length — this mirrors the teacher dataframe's
// construction-time length check (internal/dataframe.NewDataFrame), since an
// inconsistent in-memory fixture is a programmer error, not a runtime one.
func NewMemorySource(columns map[string][]float64, index []string, batchSize int) *MemorySource {
	nrows := -1
	for name, col := range columns {
		if nrows == -1 {
			nrows = len(col)
		} else if len(col) != nrows {
			panic(fmt.Sprintf("batch: column %q has %d rows, expected %d", name, len(col), nrows))
		}
	}
	if nrows == -1 {
		nrows = len(index)
	}
	if index != nil && len(index) != nrows {
		panic(fmt.Sprintf("batch: index column has %d rows, expected %d", len(index), nrows))
	}
	if batchSize <= 0 {
		batchSize = nrows
		if batchSize == 0 {
			batchSize = 1
		}
	}
	cols := make(map[string][]float64, len(columns))
	for k, v := range columns {
		cols[k] = v
	}
	return &MemorySource{columns: cols, index: index, batchSize: batchSize, nrows: nrows}
}

func (m *MemorySource) Schema() map[string]bool {
	schema := make(map[string]bool, len(m.columns))
	for name := range m.columns {
		schema[name] = true
	}
	return schema
}

func (m *MemorySource) HasIndexColumn() bool { return m.index != nil }

func (m *MemorySource) Rows() (int, bool) { return m.nrows, true }

func (m *MemorySource) Next() (*Batch, error) {
	if m.cursor >= m.nrows {
		return nil, ErrEOF
	}
	end := m.cursor + m.batchSize
	if end > m.nrows {
		end = m.nrows
	}
	out := &Batch{Columns: make(map[string][]float64, len(m.columns)), Start: m.cursor}
	for name, col := range m.columns {
		out.Columns[name] = col[m.cursor:end]
	}
	if m.index != nil {
		out.Index = m.index[m.cursor:end]
	}
	m.cursor = end
	return out, nil
}

func (m *MemorySource) Close() error { return nil }
