package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePreOrderAndLen(t *testing.T) {
	tr, err := Parse("(TSMean 5 (- :high :low))")
	require.NoError(t, err)

	// pre-order: TSMean, 5, -, high, low
	require.Equal(t, 5, tr.Len())
	require.Equal(t, 3, tr.Depth())
}

func TestChildIndices(t *testing.T) {
	tr, err := Parse("(+ (Neg :a) (Abs :b))")
	require.NoError(t, err)
	// pre-order: +(0), Neg(1), a(2), Abs(3), b(4)
	require.Equal(t, []int{1, 3}, tr.ChildIndices())
}

func TestColumns(t *testing.T) {
	tr, err := Parse("(+ :close (TSMean 5 :close))")
	require.NoError(t, err)
	require.Equal(t, []string{"close"}, tr.Columns())
}

func TestAtSubtree(t *testing.T) {
	tr, err := Parse("(+ (Neg :a) (Abs :b))")
	require.NoError(t, err)
	sub := tr.At(1) // Neg :a
	require.Equal(t, "(Neg :a)", sub.Format())
}

func TestReplacePreservesOriginal(t *testing.T) {
	tr, err := Parse("(+ (Neg :a) (Abs :b))")
	require.NoError(t, err)
	replacement, err := Parse(":c")
	require.NoError(t, err)

	out := tr.Replace(1, replacement)
	require.Equal(t, "(+ (Neg :a) (Abs :b))", tr.Format())
	require.Equal(t, "(+ :c (Abs :b))", out.Format())
}

func TestCloneEqual(t *testing.T) {
	tr, err := Parse("(TSCorrelation 10 :close :volume)")
	require.NoError(t, err)
	clone := tr.Clone()
	require.True(t, tr.Equal(clone))
	require.Equal(t, tr.Format(), clone.Format())
}

func TestFormatRoundTrip(t *testing.T) {
	texts := []string{
		"(TSRank 20 :close)",
		"(If (> :close :open) 1 0)",
	}
	for _, text := range texts {
		tr, err := Parse(text)
		require.NoError(t, err, text)
		tr2, err := Parse(tr.Format())
		require.NoError(t, err, text)
		require.True(t, tr.Equal(tr2), text)
	}
}
