package replay

import (
	"sync"

	"factorlang/internal/batch"
	"factorlang/internal/factor"
)

// factorJob is one (factor, batch) unit of work: evaluate runtime against b.
type factorJob struct {
	factorIdx int
	runtime   *factor.Runtime
	b         *batch.Batch
}

// factorResult is a factorJob's output.
type factorResult struct {
	factorIdx int
	values    []float64
}

// factorPool runs a fixed number of worker goroutines that evaluate factor
// runtimes against batches. It is held open for the lifetime of one source's
// replay so that Step calls for the same runtime are always issued from the
// batch-submission loop in strict batch order — workers only ever run
// distinct factors concurrently, never the same factor's successive batches
// (spec.md §6 "per-source, per-factor sequential state").
type factorPool struct {
	jobs    chan factorJob
	results chan factorResult
	wg      sync.WaitGroup
}

func newFactorPool(size int) *factorPool {
	if size < 1 {
		size = 1
	}
	p := &factorPool{
		jobs:    make(chan factorJob),
		results: make(chan factorResult),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *factorPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.results <- factorResult{
			factorIdx: job.factorIdx,
			values:    job.runtime.Step(job.b),
		}
	}
}

// stepBatch evaluates every runtime against b concurrently (bounded by the
// pool's worker count) and returns one []float64 per runtime, indexed the
// same as runtimes.
func (p *factorPool) stepBatch(runtimes []*factor.Runtime, b *batch.Batch) [][]float64 {
	out := make([][]float64, len(runtimes))
	go func() {
		for i, rt := range runtimes {
			p.jobs <- factorJob{factorIdx: i, runtime: rt, b: b}
		}
	}()
	for range runtimes {
		r := <-p.results
		out[r.factorIdx] = r.values
	}
	return out
}

func (p *factorPool) close() {
	close(p.jobs)
	p.wg.Wait()
}
