package operators

import (
	"math"

	"factorlang/internal/batch"
)

// windowBase is embedded by every true window operator (TSSum, TSMean,
// TSStd, TSSkew, TSMin/Max, TSArgMin/Max, TSRank): a window of size w over a
// single child, ready offset = child.ReadyOffset() + (w-1).
type windowBase struct {
	base
	child      Evaluator
	window     int
	childReady int
}

func newWindowBase(child Evaluator, window int) windowBase {
	cr := child.ReadyOffset()
	wb := windowBase{child: child, window: window, childReady: cr}
	wb.readyOffset = cr + window - 1
	return wb
}

func (w *windowBase) RequiredRows() int { return w.child.RequiredRows() + w.window - 1 }

func (w *windowBase) Reset() {
	w.base.Reset()
	w.child.Reset()
}

// tsSum / tsMean share accumulator state (a running sum); TSMean divides by
// the window size once warm.
type tsSum struct {
	windowBase
	ring *ring
	sum  float64
	mean bool
}

func newTSSum(child Evaluator, w int, mean bool) *tsSum {
	return &tsSum{windowBase: newWindowBase(child, w), ring: newRing(w), mean: mean}
}

func (e *tsSum) Step(b *batch.Batch) []float64 {
	childOut := e.child.Step(b)
	out := make([]float64, len(childOut))
	for i, x := range childOut {
		out[i] = e.stepOne(x)
	}
	return out
}

func (e *tsSum) stepOne(x float64) float64 {
	if e.failed {
		return nan
	}
	t := e.tick
	e.tick++
	if t < e.childReady {
		return nan
	}
	evicted, wasFull := e.ring.push(x)
	e.sum += x
	if wasFull {
		e.sum -= evicted
	}
	if t < e.readyOffset {
		return nan
	}
	v := e.sum
	if e.mean {
		v /= float64(e.window)
	}
	if !isFinite(v) {
		e.failed = true
		return nan
	}
	return v
}

func (e *tsSum) Reset() {
	e.windowBase.Reset()
	e.ring.reset()
	e.sum = 0
}

// tsStd is a Welford-style running variance over a fixed window, maintained
// via add-new/subtract-old of the sum and sum-of-squares (spec.md §4.3).
// Negative variance from numerical drift is clamped to 0 rather than
// treated as a failure.
type tsStd struct {
	windowBase
	ring  *ring
	sum   float64
	sumSq float64
	skew  bool // when true, behaves as TSSkew instead (shares the same rings)
	cube  *ring
	sum3  float64
}

func newTSStd(child Evaluator, w int) *tsStd {
	return &tsStd{windowBase: newWindowBase(child, w), ring: newRing(w)}
}

func newTSSkew(child Evaluator, w int) *tsStd {
	return &tsStd{windowBase: newWindowBase(child, w), ring: newRing(w), skew: true, cube: newRing(w)}
}

func (e *tsStd) Step(b *batch.Batch) []float64 {
	childOut := e.child.Step(b)
	out := make([]float64, len(childOut))
	for i, x := range childOut {
		out[i] = e.stepOne(x)
	}
	return out
}

func (e *tsStd) stepOne(x float64) float64 {
	if e.failed {
		return nan
	}
	t := e.tick
	e.tick++
	if t < e.childReady {
		return nan
	}
	evicted, wasFull := e.ring.push(x)
	e.sum += x
	e.sumSq += x * x
	if wasFull {
		e.sum -= evicted
		e.sumSq -= evicted * evicted
	}
	var cubeEvicted float64
	var cubeWasFull bool
	if e.skew {
		cubeEvicted, cubeWasFull = e.cube.push(x * x * x)
		e.sum3 += x * x * x
		if cubeWasFull {
			e.sum3 -= cubeEvicted
		}
	}
	if t < e.readyOffset {
		return nan
	}
	n := float64(e.window)
	mean := e.sum / n
	variance := e.sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	var v float64
	if e.skew {
		if variance == 0 {
			v = 0
		} else {
			m3 := e.sum3/n - 3*mean*(e.sumSq/n) + 2*mean*mean*mean
			v = m3 / math.Pow(variance, 1.5)
		}
	} else {
		v = math.Sqrt(variance)
	}
	if !isFinite(v) {
		e.failed = true
		return nan
	}
	return v
}

func (e *tsStd) Reset() {
	e.windowBase.Reset()
	e.ring.reset()
	e.sum, e.sumSq, e.sum3 = 0, 0, 0
	if e.cube != nil {
		e.cube.reset()
	}
}
