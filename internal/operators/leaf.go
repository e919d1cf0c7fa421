package operators

import "factorlang/internal/batch"

// columnEvaluator passes a named input column through unchanged. It never
// fails: raw input is assumed finite (spec.md §1 non-goal: no validation of
// input column values beyond the schema check at build time).
type columnEvaluator struct {
	base
	name string
}

func newColumnEvaluator(name string) *columnEvaluator {
	return &columnEvaluator{name: name}
}

func (c *columnEvaluator) RequiredRows() int { return 1 }

func (c *columnEvaluator) Step(b *batch.Batch) []float64 {
	col := b.Column(c.name)
	c.tick += len(col)
	return col
}

// constantEvaluator broadcasts a fixed value for every row of the batch.
type constantEvaluator struct {
	base
	value float64
}

func newConstantEvaluator(v float64) *constantEvaluator {
	return &constantEvaluator{value: v}
}

func (c *constantEvaluator) RequiredRows() int { return 1 }

func (c *constantEvaluator) Step(b *batch.Batch) []float64 {
	k := b.Len()
	out := make([]float64, k)
	for i := range out {
		out[i] = c.value
	}
	c.tick += k
	return out
}
