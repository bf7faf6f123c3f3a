package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkedSubsets(t *testing.T) {
	assert.Equal(t, []int{0b011, 0b100}, MarkedSubsets([]int{1, 2, 3}, 3, 3))
	// Sums wrap modulo 2^width: 3+3 = 6 ≡ 2 (mod 4).
	assert.Equal(t, []int{0b11}, MarkedSubsets([]int{3, 3}, 2, 2))
	assert.Nil(t, MarkedSubsets([]int{2, 4}, 1, 3))
}

func TestFormatSubset(t *testing.T) {
	values := []int{1, 2, 3}
	assert.Equal(t, "{0,1} = 1+2", FormatSubset(values, 0b011))
	assert.Equal(t, "{2} = 3", FormatSubset(values, 0b100))
	assert.Equal(t, "{} = 0", FormatSubset(values, 0))
}

func TestSuggestedIterations(t *testing.T) {
	tests := []struct {
		n, m, want int
	}{
		{3, 2, 1},
		{3, 0, 0},
		{3, 8, 0},
		{2, 1, 1},
		{4, 1, 3},
		{10, 1, 25},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuggestedIterations(tt.n, tt.m), "n=%d m=%d", tt.n, tt.m)
	}
}

func TestSuccessProbabilityAndMostLikely(t *testing.T) {
	dist := []float64{0.1, 0.6, 0.3}
	assert.InDelta(t, 0.9, SuccessProbability(dist, []int{1, 2, 7}), 1e-12)
	assert.Zero(t, SuccessProbability(dist, nil))
	assert.Equal(t, 1, MostLikely(dist))
	assert.Equal(t, -1, MostLikely(nil))
}

func TestSweepMatchesSequentialRuns(t *testing.T) {
	p := &Problem{Values: []int{1, 2, 3}, Target: 3}
	marked := MarkedSubsets(p.Values, p.Target, p.Width())

	results, err := Sweep(context.Background(), p, 3, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for k, r := range results {
		c, dist, err := RunSolver(p, k)
		require.NoError(t, err)
		assert.Equal(t, k, r.Iterations)
		assert.InDelta(t, SuccessProbability(dist, marked), r.Success, amplitudeTol)
		assert.Equal(t, c.Depth(), r.Depth)
		assert.Equal(t, len(c.Decompose().Gates), r.GateCount)
	}

	assert.InDelta(t, 0.25, results[0].Success, amplitudeTol)
	assert.InDelta(t, 0, results[0].Hellinger, 1e-6)
	assert.InDelta(t, 1, results[1].Success, amplitudeTol)
	assert.Greater(t, results[1].Hellinger, 0.1)
}

func TestSweepErrors(t *testing.T) {
	p := &Problem{Values: []int{1, 2}, Target: 1}

	_, err := Sweep(context.Background(), p, -1, 1)
	assert.ErrorContains(t, err, "negative iteration bound")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Sweep(ctx, p, 2, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
