package batch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchValidateDetectsRaggedColumns(t *testing.T) {
	b := &Batch{Columns: map[string][]float64{"a": {1, 2}, "b": {1, 2, 3}}}
	require.Error(t, b.Validate())
}

func TestBatchLenFallsBackToIndex(t *testing.T) {
	b := &Batch{Index: []string{"x", "y", "z"}}
	require.Equal(t, 3, b.Len())
}

func TestValidateSchemaRequiresColumns(t *testing.T) {
	src := NewMemorySource(map[string][]float64{"close": {1, 2}}, nil, 2)
	require.NoError(t, ValidateSchema([]string{"close"}, src, ""))
	require.Error(t, ValidateSchema([]string{"open"}, src, ""))
}

func TestValidateSchemaRequiresIndexColumn(t *testing.T) {
	src := NewMemorySource(map[string][]float64{"close": {1, 2}}, nil, 2)
	require.Error(t, ValidateSchema(nil, src, "ts"))

	withIndex := NewMemorySource(map[string][]float64{"close": {1, 2}}, []string{"a", "b"}, 2)
	require.NoError(t, ValidateSchema(nil, withIndex, "ts"))
}

func TestMemorySourceBatchesAndEOF(t *testing.T) {
	src := NewMemorySource(map[string][]float64{"x": {1, 2, 3, 4, 5}}, nil, 2)

	b1, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, b1.Column("x"))
	require.Equal(t, 0, b1.Start)

	b2, _ := src.Next()
	require.Equal(t, 2, b2.Start)

	b3, _ := src.Next()
	require.Equal(t, []float64{5}, b3.Column("x"))

	_, err = src.Next()
	require.ErrorIs(t, err, ErrEOF)
}

func TestMemorySourcePanicsOnMismatchedColumnLengths(t *testing.T) {
	require.Panics(t, func() {
		NewMemorySource(map[string][]float64{"a": {1, 2}, "b": {1}}, nil, 1)
	})
}
