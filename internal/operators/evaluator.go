// Package operators implements the per-node stateful evaluators that back
// every entry in the operator catalog (spec.md §4.1, §4.3): a uniform
// required_rows/ready_offset/step/reset contract, amortized-O(1) window
// algorithms, and sticky per-node failure. This is the ~45% of the spec's
// budget (component C).
package operators

import (
	"math"

	"factorlang/internal/batch"
)

// Evaluator is the uniform contract every operator-kind implementation
// satisfies (spec.md §4.3).
type Evaluator interface {
	// RequiredRows is the number of input rows needed to produce one
	// output: 1 for pointwise, w for a window of size w, composed
	// recursively through children.
	RequiredRows() int
	// ReadyOffset is the smallest absolute row index at which this node
	// first emits a defined (non-NaN) value.
	ReadyOffset() int
	// Step consumes the next batch and appends k outputs (k = b.Len()),
	// the first max(0, ReadyOffset()-alreadyConsumed) of which are NaN.
	Step(b *batch.Batch) []float64
	// Reset restores pristine state, used between independent sources.
	Reset()
	// Failed reports whether this node's sticky failure flag is set.
	Failed() bool
}

// base holds the bookkeeping shared by every evaluator kind: the absolute
// tick of the next row to be processed, the sticky failure flag, and the
// precomputed ready offset.
type base struct {
	readyOffset int
	tick        int
	failed      bool
}

func (b *base) ReadyOffset() int { return b.readyOffset }
func (b *base) Failed() bool     { return b.failed }
func (b *base) Reset() {
	b.tick = 0
	b.failed = false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// truthy implements the spec's "treats x > 0 as true" convention for
// And/Or/!.
func truthy(x float64) bool { return x > 0 }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
