package operators

import "factorlang/internal/batch"

// rankItem is one window member for TSRank: its value and insertion
// sequence number (used for tie-breaking).
type rankItem struct {
	val float64
	seq int64
}

// tsRank implements TSRank: on each tick, insert the current value, evict
// the one leaving the window, and report the 0-based ascending rank of the
// current value within the window, with later insertions ranking higher on
// ties (spec.md §4.3, §9 — the open question this spec fixes).
//
// Ranking scans the current window (O(w) per tick) rather than using a
// balanced order-statistic tree; at the window sizes this system targets
// that trade is simpler and still fast enough, at the cost of the O(log w)
// guarantee the spec's design notes suggest.
type tsRank struct {
	windowBase
	items []rankItem // fixed-capacity ring, indices 0..window-1
	head  int        // index of the oldest item
	count int
	seq   int64
}

func newTSRank(child Evaluator, w int) *tsRank {
	return &tsRank{windowBase: newWindowBase(child, w), items: make([]rankItem, w)}
}

func (e *tsRank) Step(b *batch.Batch) []float64 {
	childOut := e.child.Step(b)
	out := make([]float64, len(childOut))
	for i, x := range childOut {
		out[i] = e.stepOne(x)
	}
	return out
}

func (e *tsRank) stepOne(x float64) float64 {
	if e.failed {
		return nan
	}
	t := e.tick
	e.tick++
	if t < e.childReady {
		return nan
	}
	e.seq++
	cur := rankItem{val: x, seq: e.seq}
	writeIdx := (e.head + e.count) % len(e.items)
	if e.count < len(e.items) {
		e.count++
	} else {
		e.head = (e.head + 1) % len(e.items)
	}
	e.items[writeIdx] = cur

	if t < e.readyOffset {
		return nan
	}
	rank := 0
	for i := 0; i < e.count; i++ {
		it := e.items[(e.head+i)%len(e.items)]
		if it.val < cur.val || (it.val == cur.val && it.seq < cur.seq) {
			rank++
		}
	}
	v := float64(rank)
	if !isFinite(v) {
		e.failed = true
		return nan
	}
	return v
}

func (e *tsRank) Reset() {
	e.windowBase.Reset()
	e.head, e.count, e.seq = 0, 0, 0
}
