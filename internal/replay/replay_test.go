package replay

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"factorlang/internal/batch"
	"factorlang/internal/factor"
)

// failingSource wraps a MemorySource but returns a non-EOF error from Next
// after failAfter successful batches, to exercise per-source I/O error
// isolation (spec.md §7) without touching the real batch.Source implementations.
type failingSource struct {
	inner     *batch.MemorySource
	failAfter int
	calls     int
}

func (f *failingSource) Schema() map[string]bool { return f.inner.Schema() }
func (f *failingSource) HasIndexColumn() bool     { return f.inner.HasIndexColumn() }
func (f *failingSource) Rows() (int, bool)        { return f.inner.Rows() }
func (f *failingSource) Close() error             { return f.inner.Close() }

func (f *failingSource) Next() (*batch.Batch, error) {
	if f.calls >= f.failAfter {
		return nil, fmt.Errorf("simulated disk read failure")
	}
	f.calls++
	return f.inner.Next()
}

func mustFactor(t *testing.T, text string) *factor.Factor {
	t.Helper()
	f, err := factor.Parse(text)
	require.NoError(t, err)
	return f
}

// S4: f = (/ :a :b) on a=[1,2,3], b=[1,0,3] -> factor fails; output [NaN, NaN, NaN].
func TestSeedS4FailureBlanksEntireColumn(t *testing.T) {
	f := mustFactor(t, "(/ :a :b)")
	src := batch.NewMemorySource(map[string][]float64{"a": {1, 2, 3}, "b": {1, 0, 3}}, nil, 3)

	out, err := Run(context.Background(), []batch.Source{src}, []FactorSpec{{Name: "f", Factor: f}}, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	for _, v := range out.Column("f") {
		require.True(t, math.IsNaN(v))
	}
}

// S6: two 5-row sources, f = (Delay 1 :x), trim=false -> length 10, positions 0 and 5 NaN.
func TestSeedS6PerSourceWarmup(t *testing.T) {
	f := mustFactor(t, "(Delay 1 :x)")
	src1 := batch.NewMemorySource(map[string][]float64{"x": {1, 2, 3, 4, 5}}, nil, 5)
	src2 := batch.NewMemorySource(map[string][]float64{"x": {10, 20, 30, 40, 50}}, nil, 5)

	out, err := Run(context.Background(), []batch.Source{src1, src2}, []FactorSpec{{Name: "f", Factor: f}}, Options{Trim: false})
	require.NoError(t, err)
	require.Equal(t, 10, out.Len())
	col := out.Column("f")
	require.True(t, math.IsNaN(col[0]))
	require.True(t, math.IsNaN(col[5]))
	require.Equal(t, []float64{1, 2, 3, 4}, col[1:5])
	require.Equal(t, []float64{10, 20, 30, 40}, col[6:10])
}

func TestTrimDropsWarmupRows(t *testing.T) {
	f := mustFactor(t, "(TSSum 3 :x)")
	src := batch.NewMemorySource(map[string][]float64{"x": {1, 2, 3, 4, 5}}, nil, 5)

	out, err := Run(context.Background(), []batch.Source{src}, []FactorSpec{{Name: "f", Factor: f}}, Options{Trim: true})
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	require.Equal(t, []float64{6, 9, 12}, out.Column("f"))
}

// Property 6: batch-size invariance.
func TestBatchSizeInvariance(t *testing.T) {
	data := map[string][]float64{"x": {3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}}
	f := mustFactor(t, "(TSStd 4 :x)")

	var reference []float64
	for _, bs := range []int{1, 3, 100} {
		src := batch.NewMemorySource(data, nil, bs)
		out, err := Run(context.Background(), []batch.Source{src}, []FactorSpec{{Name: "f", Factor: f}}, Options{})
		require.NoError(t, err)
		if reference == nil {
			reference = out.Column("f")
			continue
		}
		require.InDeltaSlice(t, reference, out.Column("f"), 0, "batch size %d", bs)
	}
}

// Property 7: parallelism invariance, and source order preserved regardless
// of completion order.
func TestParallelismInvarianceAndSourceOrder(t *testing.T) {
	f := mustFactor(t, "(TSMean 2 :x)")
	newSources := func() []batch.Source {
		return []batch.Source{
			batch.NewMemorySource(map[string][]float64{"x": {1, 2, 3}}, nil, 2),
			batch.NewMemorySource(map[string][]float64{"x": {10, 20, 30}}, nil, 2),
			batch.NewMemorySource(map[string][]float64{"x": {100, 200, 300}}, nil, 2),
		}
	}

	var reference []float64
	for _, opts := range []Options{
		{NDataJobs: 1, NFactorJobs: 1},
		{NDataJobs: 3, NFactorJobs: 1},
		{NDataJobs: 2, NFactorJobs: 5},
	} {
		out, err := Run(context.Background(), newSources(), []FactorSpec{{Name: "f", Factor: f}}, opts)
		require.NoError(t, err)
		if reference == nil {
			reference = out.Column("f")
			continue
		}
		require.InDeltaSlice(t, reference, out.Column("f"), 0)
	}
}

// Property 8: determinism across runs.
func TestDeterminismAcrossRuns(t *testing.T) {
	f := mustFactor(t, "(TSRank 3 :x)")
	newSrc := func() batch.Source {
		return batch.NewMemorySource(map[string][]float64{"x": {5, 1, 9, 2, 6, 3}}, nil, 4)
	}

	out1, err := Run(context.Background(), []batch.Source{newSrc()}, []FactorSpec{{Name: "f", Factor: f}}, Options{})
	require.NoError(t, err)
	out2, err := Run(context.Background(), []batch.Source{newSrc()}, []FactorSpec{{Name: "f", Factor: f}}, Options{})
	require.NoError(t, err)
	require.Equal(t, out1.Column("f"), out2.Column("f"))
}

func TestRunFramedProducesRowKeyedResult(t *testing.T) {
	f := mustFactor(t, "(TSSum 2 :x)")
	src := batch.NewMemorySource(
		map[string][]float64{"x": {1, 2, 3}},
		[]string{"d1", "d2", "d3"},
		3,
	)

	frame, err := RunFramed(context.Background(), []batch.Source{src}, []FactorSpec{{Name: "f", Factor: f}}, Options{IndexCol: "date"})
	require.NoError(t, err)
	require.Equal(t, 3, frame.Len())
	row, ok := frame.Row("d3")
	require.True(t, ok)
	require.Equal(t, float64(5), row["f"])
}

func TestOutputFrameWithoutIndexColIsRejected(t *testing.T) {
	f := mustFactor(t, "(TSSum 2 :x)")
	src := batch.NewMemorySource(map[string][]float64{"x": {1, 2, 3}}, nil, 3)

	_, err := Run(context.Background(), []batch.Source{src}, []FactorSpec{{Name: "f", Factor: f}}, Options{Output: OutputFrame})
	require.Error(t, err)
}

// A source that fails mid-stream contributes a NaN block of its expected
// width (from Rows, knowable for a MemorySource-backed source) instead of
// aborting the other sources' output (spec.md §7).
func TestSourceIOErrorIsolatesOnlyThatSource(t *testing.T) {
	f := mustFactor(t, "(TSSum 2 :x)")
	good := batch.NewMemorySource(map[string][]float64{"x": {1, 2, 3}}, nil, 3)
	bad := &failingSource{inner: batch.NewMemorySource(map[string][]float64{"x": {10, 20}}, nil, 2)}

	out, err := Run(context.Background(), []batch.Source{good, bad}, []FactorSpec{{Name: "f", Factor: f}}, Options{})
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())

	col := out.Column("f")
	require.True(t, math.IsNaN(col[0]))
	require.Equal(t, []float64{3, 5}, col[1:3])
	for _, v := range col[3:] {
		require.True(t, math.IsNaN(v))
	}
}

// Verbose gates only the sticky-failure diagnostic log line, never the
// NaN-blanking behavior itself: the output must be identical whether or
// not Verbose is set.
func TestVerboseDoesNotAffectOutput(t *testing.T) {
	f := mustFactor(t, "(/ :a :b)")
	newSrc := func() batch.Source {
		return batch.NewMemorySource(map[string][]float64{"a": {1, 2, 3}, "b": {1, 0, 3}}, nil, 3)
	}

	quiet, err := Run(context.Background(), []batch.Source{newSrc()}, []FactorSpec{{Name: "f", Factor: f}}, Options{Verbose: false})
	require.NoError(t, err)
	loud, err := Run(context.Background(), []batch.Source{newSrc()}, []FactorSpec{{Name: "f", Factor: f}}, Options{Verbose: true})
	require.NoError(t, err)
	require.Equal(t, quiet.Column("f"), loud.Column("f"))
}

func TestRunRejectsSchemaMismatch(t *testing.T) {
	f := mustFactor(t, "(TSMean 5 :close)")
	src := batch.NewMemorySource(map[string][]float64{"open": {1, 2, 3}}, nil, 3)

	_, err := Run(context.Background(), []batch.Source{src}, []FactorSpec{{Name: "f", Factor: f}}, Options{})
	require.Error(t, err)
}
