// Package batch defines the abstract batch-source contract the replay
// engine is driven by (spec.md §4.5/§6): a finite lazy sequence of equal-
// length float64 column batches, plus an optional opaque pass-through index
// column. The concrete file reader/writer is explicitly out of scope
// (spec.md §1); this package is the seam external collaborators implement
// against, plus one reference in-memory implementation used by tests and
// the demo entry point.
package batch

import (
	"fmt"
	"io"

	"factorlang/internal/errors"
)

// Batch is a set of equal-length float64 columns addressable by name, plus
// the logical starting row index of its first row within the source.
type Batch struct {
	Columns map[string][]float64
	Index   []string // opaque pass-through index column; nil if not requested
	Start   int
}

// Len returns the batch's row count.
func (b *Batch) Len() int {
	for _, col := range b.Columns {
		return len(col)
	}
	if b.Index != nil {
		return len(b.Index)
	}
	return 0
}

// Column returns the named column, or nil if absent.
func (b *Batch) Column(name string) []float64 {
	return b.Columns[name]
}

// Validate checks internal consistency: every column (and the index, if
// present) has the same length.
func (b *Batch) Validate() error {
	n := -1
	for name, col := range b.Columns {
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return fmt.Errorf("batch: column %q has %d rows, expected %d", name, len(col), n)
		}
	}
	if b.Index != nil && n != -1 && len(b.Index) != n {
		return fmt.Errorf("batch: index column has %d rows, expected %d", len(b.Index), n)
	}
	return nil
}

// Source is the abstract iterator the replay engine consumes: a finite lazy
// sequence of batches. Restartable only by re-opening (a fresh Source per
// replay, not by seeking).
type Source interface {
	// Schema reports which float64 columns this source can supply.
	Schema() map[string]bool
	// HasIndexColumn reports whether this source carries a pass-through
	// index column (opaque to the replay engine).
	HasIndexColumn() bool
	// Rows reports the total row count, if known ahead of time (needed to
	// size output columns up front); ok is false if unknown.
	Rows() (n int, ok bool)
	// Next returns the next batch, or io.EOF once exhausted.
	Next() (*Batch, error)
	// Close releases any resources held by the source.
	Close() error
}

// ErrEOF is the sentinel a Source.Next returns once exhausted.
var ErrEOF = io.EOF

// ValidateSchema checks that every column in need is present in schema and
// that, if requested, the source carries an index column. Returns a typed
// *errors.FactorError on mismatch (spec.md §4.4/§7 "Schema error").
func ValidateSchema(need []string, src Source, indexCol string) error {
	schema := src.Schema()
	for _, col := range need {
		if !schema[col] {
			return errors.NewSchemaError("column %q not present in source", col)
		}
	}
	if indexCol != "" && !src.HasIndexColumn() {
		return errors.NewSchemaError("index column %q not present in source", indexCol)
	}
	return nil
}
