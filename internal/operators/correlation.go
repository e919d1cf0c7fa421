package operators

import (
	"math"

	"factorlang/internal/batch"
)

const varianceEpsilon = 1e-12

// tsCorrelation implements TSCorrelation: rolling Pearson correlation over
// the last c paired observations, maintained via running sums of x, y, x²,
// y², and xy (spec.md §4.3). Zero variance on either side yields 0 rather
// than NaN.
type tsCorrelation struct {
	base
	x, y       Evaluator
	window     int
	childReady int

	ringX, ringY         *ring
	sumX, sumY           float64
	sumX2, sumY2, sumXY  float64
}

func newTSCorrelation(x, y Evaluator, w int) *tsCorrelation {
	cr := x.ReadyOffset()
	if y.ReadyOffset() > cr {
		cr = y.ReadyOffset()
	}
	e := &tsCorrelation{
		x: x, y: y, window: w, childReady: cr,
		ringX: newRing(w), ringY: newRing(w),
	}
	e.readyOffset = cr + w - 1
	return e
}

func (e *tsCorrelation) RequiredRows() int {
	rx, ry := e.x.RequiredRows(), e.y.RequiredRows()
	max := rx
	if ry > max {
		max = ry
	}
	return max + e.window - 1
}

func (e *tsCorrelation) Step(b *batch.Batch) []float64 {
	xs := e.x.Step(b)
	ys := e.y.Step(b)
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = e.stepOne(xs[i], ys[i])
	}
	return out
}

func (e *tsCorrelation) stepOne(x, y float64) float64 {
	if e.failed {
		return nan
	}
	t := e.tick
	e.tick++
	if t < e.childReady {
		return nan
	}
	evX, fullX := e.ringX.push(x)
	evY, fullY := e.ringY.push(y)
	e.sumX += x
	e.sumY += y
	e.sumX2 += x * x
	e.sumY2 += y * y
	e.sumXY += x * y
	if fullX {
		e.sumX -= evX
		e.sumY -= evY
		e.sumX2 -= evX * evX
		e.sumY2 -= evY * evY
		e.sumXY -= evX * evY
	}
	_ = fullY // ringX and ringY always fill in lockstep

	if t < e.readyOffset {
		return nan
	}
	n := float64(e.window)
	meanX, meanY := e.sumX/n, e.sumY/n
	varX := e.sumX2/n - meanX*meanX
	varY := e.sumY2/n - meanY*meanY
	if varX < 0 {
		varX = 0
	}
	if varY < 0 {
		varY = 0
	}
	var v float64
	if varX <= varianceEpsilon || varY <= varianceEpsilon {
		v = 0
	} else {
		cov := e.sumXY/n - meanX*meanY
		v = cov / math.Sqrt(varX*varY)
	}
	if !isFinite(v) {
		e.failed = true
		return nan
	}
	return v
}

func (e *tsCorrelation) Reset() {
	e.base.Reset()
	e.x.Reset()
	e.y.Reset()
	e.ringX.reset()
	e.ringY.reset()
	e.sumX, e.sumY, e.sumX2, e.sumY2, e.sumXY = 0, 0, 0, 0, 0
}
