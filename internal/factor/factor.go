// Package factor is the public surface of a parsed factor (spec.md §6
// "Factor API"): S-expression parsing, structural introspection (length,
// depth, child indices, referenced columns), subtree replacement, and
// compiling the tree into a runnable evaluator against a concrete schema.
package factor

import (
	"factorlang/internal/batch"
	"factorlang/internal/errors"
	"factorlang/internal/operators"
	"factorlang/internal/tree"
)

// Factor is a parsed, structurally validated operator tree, not yet bound
// to any particular data source.
type Factor struct {
	text string
	t    *tree.Tree
}

// Parse parses S-expression text into a Factor (spec.md §4.1/§4.2). Parse
// errors are *errors.FactorError with Kind == errors.Parse.
func Parse(text string) (*Factor, error) {
	t, err := tree.Parse(text)
	if err != nil {
		return nil, err
	}
	return &Factor{text: text, t: t}, nil
}

// Format renders the factor's canonical S-expression text. Round-trips
// with Parse (spec.md §8 property 3).
func (f *Factor) Format() string { return f.t.Format() }

// Len returns the factor's node count in pre-order.
func (f *Factor) Len() int { return f.t.Len() }

// Depth returns the factor's tree depth (leaves have depth 1).
func (f *Factor) Depth() int { return f.t.Depth() }

// ChildIndices returns the pre-order indices of the root operator's direct
// arguments.
func (f *Factor) ChildIndices() []int { return f.t.ChildIndices() }

// Subtree returns the subtree rooted at pre-order index i, as its own
// Factor.
func (f *Factor) Subtree(i int) *Factor {
	return &Factor{text: "", t: f.t.At(i)}
}

// Replace returns a new Factor with the subtree at pre-order index i
// substituted by other's tree. Neither receiver nor other is mutated.
func (f *Factor) Replace(i int, other *Factor) *Factor {
	return &Factor{text: "", t: f.t.Replace(i, other.t)}
}

// Clone deep-copies the factor.
func (f *Factor) Clone() *Factor {
	return &Factor{text: f.text, t: f.t.Clone()}
}

// Equal reports structural equality with other, ignoring source text and
// node identity.
func (f *Factor) Equal(other *Factor) bool {
	return f.t.Equal(other.t)
}

// Columns returns every column name the factor references, first-seen
// pre-order.
func (f *Factor) Columns() []string { return f.t.Columns() }

// Runtime is a Factor compiled against a concrete schema: a stateful
// evaluator ready to Step over batches from a matching Source.
type Runtime struct {
	eval operators.Evaluator
}

// Compile validates the factor's referenced columns (and, if indexCol is
// non-empty, the presence of an index column) against src's schema, then
// builds the stateful evaluator graph. Returns a *errors.FactorError with
// Kind == errors.Schema on mismatch.
func (f *Factor) Compile(src batch.Source, indexCol string) (*Runtime, error) {
	if err := batch.ValidateSchema(f.Columns(), src, indexCol); err != nil {
		return nil, err
	}
	eval, err := operators.Build(f.t.Root())
	if err != nil {
		return nil, errors.Wrap(errors.Schema, err, "building evaluator for factor")
	}
	return &Runtime{eval: eval}, nil
}

// ReadyOffset returns the 0-based row index of the first row for which this
// factor can produce a non-NaN value, given a fully warmed-up source.
func (r *Runtime) ReadyOffset() int { return r.eval.ReadyOffset() }

// RequiredRows returns the minimum number of preceding rows (including the
// current one) the evaluator must see before it can be ready.
func (r *Runtime) RequiredRows() int { return r.eval.RequiredRows() }

// Step evaluates one batch and returns one output value per input row.
func (r *Runtime) Step(b *batch.Batch) []float64 { return r.eval.Step(b) }

// Reset clears all accumulated state, as if Step had never been called.
func (r *Runtime) Reset() { r.eval.Reset() }

// Failed reports whether this factor has hit a sticky numerical failure
// (spec.md §7): once true, it remains true and every subsequent Step output
// is NaN until Reset.
func (r *Runtime) Failed() bool { return r.eval.Failed() }
