package operators

import (
	"math"

	"factorlang/internal/batch"
)

// delayBase is shared by Delay and TSLogReturn: both look back exactly c
// ticks, so ready offset is child.ReadyOffset() + c (not c-1 — c itself is
// not a "window size" in the §4.3 windowBase sense, it's a lag).
type delayBase struct {
	base
	child      Evaluator
	lag        int
	childReady int
	ring       *ring
}

func newDelayBase(child Evaluator, lag int) delayBase {
	cr := child.ReadyOffset()
	d := delayBase{child: child, lag: lag, childReady: cr, ring: newRing(lag)}
	d.readyOffset = cr + lag
	return d
}

func (d *delayBase) RequiredRows() int { return d.child.RequiredRows() + d.lag }

func (d *delayBase) Reset() {
	d.base.Reset()
	d.child.Reset()
	d.ring.reset()
}

// delayEvaluator implements Delay: output is the child's value from `lag`
// ticks ago.
type delayEvaluator struct {
	delayBase
}

func newDelay(child Evaluator, lag int) *delayEvaluator {
	return &delayEvaluator{delayBase: newDelayBase(child, lag)}
}

func (d *delayEvaluator) Step(b *batch.Batch) []float64 {
	childOut := d.child.Step(b)
	out := make([]float64, len(childOut))
	for i, x := range childOut {
		out[i] = d.stepOne(x)
	}
	return out
}

func (d *delayEvaluator) stepOne(x float64) float64 {
	if d.failed {
		return nan
	}
	t := d.tick
	d.tick++
	if t < d.childReady {
		return nan
	}
	delayed, wasFull := d.ring.push(x)
	if t < d.readyOffset {
		return nan
	}
	_ = wasFull // always true once t >= readyOffset
	if !isFinite(delayed) {
		d.failed = true
		return nan
	}
	return delayed
}

// tsLogReturn implements TSLogReturn: ln(current / delayed-by-c). A
// non-positive ratio (from a non-positive current or delayed value) is a
// numerical failure, not an infinity (spec.md §9 open question, fixed here).
type tsLogReturn struct {
	delayBase
}

func newTSLogReturn(child Evaluator, lag int) *tsLogReturn {
	return &tsLogReturn{delayBase: newDelayBase(child, lag)}
}

func (d *tsLogReturn) Step(b *batch.Batch) []float64 {
	childOut := d.child.Step(b)
	out := make([]float64, len(childOut))
	for i, x := range childOut {
		out[i] = d.stepOne(x)
	}
	return out
}

func (d *tsLogReturn) stepOne(x float64) float64 {
	if d.failed {
		return nan
	}
	t := d.tick
	d.tick++
	if t < d.childReady {
		return nan
	}
	delayed, _ := d.ring.push(x)
	if t < d.readyOffset {
		return nan
	}
	ratio := x / delayed
	if !isFinite(ratio) || ratio <= 0 {
		d.failed = true
		return nan
	}
	v := math.Log(ratio)
	if !isFinite(v) {
		d.failed = true
		return nan
	}
	return v
}
