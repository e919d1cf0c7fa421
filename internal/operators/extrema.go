package operators

import "factorlang/internal/batch"

// dequeItem pairs a local tick index (0-based from the child's ready point)
// with its value, for the monotonic deques behind TSMin/TSMax/TSArgMin/TSArgMax.
type dequeItem struct {
	idx int
	val float64
}

// tsExtrema implements TSMin, TSMax, TSArgMin, and TSArgMax with a single
// monotonic deque, amortized O(1) per tick (spec.md §4.3).
type tsExtrema struct {
	windowBase
	deque  []dequeItem
	isMax  bool
	argOut bool
	local  int // next local index to assign (0-based since childReady)
}

func newTSExtrema(child Evaluator, w int, isMax, argOut bool) *tsExtrema {
	return &tsExtrema{windowBase: newWindowBase(child, w), isMax: isMax, argOut: argOut}
}

func (e *tsExtrema) Step(b *batch.Batch) []float64 {
	childOut := e.child.Step(b)
	out := make([]float64, len(childOut))
	for i, x := range childOut {
		out[i] = e.stepOne(x)
	}
	return out
}

func (e *tsExtrema) stepOne(x float64) float64 {
	if e.failed {
		return nan
	}
	t := e.tick
	e.tick++
	if t < e.childReady {
		return nan
	}
	local := e.local
	e.local++

	// Strict comparison: a tied value already in the deque is left in place
	// rather than evicted, so among equal extrema the earliest absolute
	// index is reported as head.
	worse := func(a, b float64) bool {
		if e.isMax {
			return a < b
		}
		return a > b
	}
	for len(e.deque) > 0 && worse(e.deque[len(e.deque)-1].val, x) {
		e.deque = e.deque[:len(e.deque)-1]
	}
	e.deque = append(e.deque, dequeItem{idx: local, val: x})
	for e.deque[0].idx <= local-e.window {
		e.deque = e.deque[1:]
	}

	if t < e.readyOffset {
		return nan
	}
	head := e.deque[0]
	var v float64
	if e.argOut {
		v = float64(local - head.idx)
	} else {
		v = head.val
	}
	if !isFinite(v) {
		e.failed = true
		return nan
	}
	return v
}

func (e *tsExtrema) Reset() {
	e.windowBase.Reset()
	e.deque = e.deque[:0]
	e.local = 0
}
