// Package replay drives a set of factors across one or more batch sources
// in parallel (spec.md §6 "Replay engine"): an outer pool fans out across
// data sources, an inner pool fans out across factors within each source,
// and results are reassembled in source order regardless of completion
// order, so output is independent of how much parallelism ran it (spec.md
// §8 properties 1, 2, 7).
package replay

import (
	"context"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"factorlang/internal/batch"
	"factorlang/internal/factor"
	"factorlang/internal/table"
)

// FactorSpec names one factor to evaluate, alongside its output column name.
type FactorSpec struct {
	Name   string
	Factor *factor.Factor
}

// OutputShape selects the result container shape (spec.md §6 "output").
type OutputShape int

const (
	// OutputTable is the plain columnar table.Table.
	OutputTable OutputShape = iota
	// OutputFrame is table.Frame, the same columns keyed for row lookup by
	// index value; requires IndexCol to be set.
	OutputFrame
)

// Options configures a replay run.
type Options struct {
	NDataJobs   int // outer concurrency: sources processed in parallel
	NFactorJobs int // inner concurrency: factors processed in parallel per batch
	Trim        bool
	IndexCol    string
	Output      OutputShape
	Verbose     bool           // gates the per-factor sticky-failure diagnostic (spec.md §6/§7)
	Log         *logrus.Logger // nil uses a default logger at Info level
}

func (o Options) logger() *logrus.Logger {
	if o.Log != nil {
		return o.Log
	}
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Run evaluates every factor in specs against every source in sources and
// returns the concatenated, optionally trimmed, result table (spec.md §6).
// Sources are processed independently: each gets its own fresh Runtime per
// factor, so state from one source never leaks into another.
func Run(ctx context.Context, sources []batch.Source, specs []FactorSpec, opts Options) (*table.Table, error) {
	if opts.Output == OutputFrame && opts.IndexCol == "" {
		return nil, fmt.Errorf("replay: output=frame requires a non-empty IndexCol")
	}
	log := opts.logger()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}

	results := make([]*sourceOutput, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	if opts.NDataJobs > 0 {
		g.SetLimit(opts.NDataJobs)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			runID := uuid.New().String()
			out, err := runOneSource(gctx, runID, src, specs, opts, log)
			if err != nil {
				return fmt.Errorf("replay: source %d (run %s): %w", i, runID, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := table.New(names)
	for i, r := range results {
		if r.rows == 0 {
			continue
		}
		trimAt := 0
		if opts.Trim {
			trimAt = r.readyOffset
			if trimAt > r.rows {
				trimAt = r.rows
			}
		}
		values := make([][]float64, len(names))
		for j := range names {
			values[j] = r.columns[j][trimAt:]
		}
		var idx []string
		if r.index != nil {
			idx = r.index[trimAt:]
		}
		if err := out.AppendSource(values, idx); err != nil {
			return nil, fmt.Errorf("replay: assembling source %d: %w", i, err)
		}
		log.WithFields(logrus.Fields{
			"source": i,
			"rows":   humanize.Comma(int64(r.rows - trimAt)),
		}).Debug("replay: source appended")
	}
	return out, nil
}

// RunFramed is Run followed by table.NewFrame, for callers that asked for
// OutputFrame. opts.Output is forced to OutputFrame so IndexCol is validated
// even if the caller forgot to set it.
func RunFramed(ctx context.Context, sources []batch.Source, specs []FactorSpec, opts Options) (*table.Frame, error) {
	opts.Output = OutputFrame
	t, err := Run(ctx, sources, specs, opts)
	if err != nil {
		return nil, err
	}
	return table.NewFrame(t)
}

type sourceOutput struct {
	columns     [][]float64 // indexed same as specs
	index       []string
	rows        int
	readyOffset int
}

func runOneSource(ctx context.Context, runID string, src batch.Source, specs []FactorSpec, opts Options, log *logrus.Logger) (*sourceOutput, error) {
	defer src.Close()

	runtimes := make([]*factor.Runtime, len(specs))
	readyOffset := 0
	for i, spec := range specs {
		rt, err := spec.Factor.Compile(src, opts.IndexCol)
		if err != nil {
			return nil, fmt.Errorf("compiling factor %q: %w", spec.Name, err)
		}
		runtimes[i] = rt
		if off := rt.ReadyOffset(); off > readyOffset {
			readyOffset = off
		}
	}

	pool := newFactorPool(opts.NFactorJobs)
	defer pool.close()

	out := &sourceOutput{columns: make([][]float64, len(specs)), readyOffset: readyOffset}
	var hasIndex bool
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := src.Next()
		if err == batch.ErrEOF {
			break
		}
		if err != nil {
			// spec.md §7: an I/O error aborts this source only, not the
			// whole replay. The other sources keep running; this source's
			// slot becomes a NaN block sized from Source.Rows when the
			// source can report it ahead of time.
			log.WithFields(logrus.Fields{
				"run": runID,
			}).WithError(err).Warn("replay: source I/O error, blanking this source's output")
			return blankSourceOutput(src, specs, readyOffset), nil
		}
		if err := b.Validate(); err != nil {
			log.WithFields(logrus.Fields{
				"run": runID,
			}).WithError(err).Warn("replay: invalid batch, blanking this source's output")
			return blankSourceOutput(src, specs, readyOffset), nil
		}
		stepped := pool.stepBatch(runtimes, b)
		for i := range specs {
			out.columns[i] = append(out.columns[i], stepped[i]...)
		}
		if b.Index != nil {
			hasIndex = true
			out.index = append(out.index, b.Index...)
		}
		out.rows += b.Len()
	}
	if !hasIndex {
		out.index = nil
	}

	for i, spec := range specs {
		if runtimes[i].Failed() {
			if opts.Verbose {
				log.WithFields(logrus.Fields{
					"run":    runID,
					"factor": spec.Name,
				}).Warn("replay: factor hit a sticky numerical failure")
			}
			// A factor that ever fails on this source is unusable for the
			// whole source, not just from the failing row onward (spec.md
			// §7/§8 seed scenario S4): overwrite its entire column.
			for j := range out.columns[i] {
				out.columns[i][j] = math.NaN()
			}
		}
	}
	return out, nil
}

// blankSourceOutput is the NaN-filled placeholder contributed by a source
// that failed partway through reading (spec.md §7: the failed source
// "contributes a NaN block of the expected width"). Width comes from
// Source.Rows when the source can report its row count ahead of time (true
// for batch.MemorySource); when it can't (ok is false, e.g. a SQL source
// mid-cursor), there is no way to know how wide the block should have been,
// so the source contributes zero rows instead of guessing.
func blankSourceOutput(src batch.Source, specs []FactorSpec, readyOffset int) *sourceOutput {
	n, ok := src.Rows()
	if !ok {
		n = 0
	}
	columns := make([][]float64, len(specs))
	for i := range columns {
		col := make([]float64, n)
		for j := range col {
			col[j] = math.NaN()
		}
		columns[i] = col
	}
	return &sourceOutput{columns: columns, rows: n, readyOffset: readyOffset}
}
