package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolverWithoutIterationsIsUniform(t *testing.T) {
	p := &Problem{Values: []int{1, 2, 3}, Target: 3}
	_, dist, err := RunSolver(p, 0)
	require.NoError(t, err)
	require.Len(t, dist, 8)
	for x, prob := range dist {
		assert.InDelta(t, 0.125, prob, amplitudeTol, "outcome %03b", x)
	}
}

func TestSolverOneIteration(t *testing.T) {
	p := &Problem{Values: []int{1, 2, 3}, Target: 3}
	_, dist, err := RunSolver(p, 1)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, dist[0b011], amplitudeTol)
	assert.InDelta(t, 0.5, dist[0b100], amplitudeTol)
	assert.InDelta(t, 1.0, SuccessProbability(dist, MarkedSubsets(p.Values, p.Target, p.Width())), amplitudeTol)
}

func TestSolverAmplifiesSingleSolution(t *testing.T) {
	// Only {1,3} = 6+4 reaches 10.
	p := &Problem{Values: []int{3, 6, 9, 4}, Target: 10}
	marked := MarkedSubsets(p.Values, p.Target, p.Width())
	require.Equal(t, []int{0b1010}, marked)

	k := SuggestedIterations(len(p.Values), len(marked))
	require.Equal(t, 3, k)

	_, dist, err := RunSolver(p, k)
	require.NoError(t, err)
	assert.Equal(t, 0b1010, MostLikely(dist))
	assert.Greater(t, dist[0b1010], 0.9)
}

func TestSolverStructure(t *testing.T) {
	p := &Problem{Values: []int{1, 2, 3}, Target: 3}
	r := p.Registers()
	c := p.Solver(2)

	ops := c.CountOps()
	assert.Equal(t, len(p.Values), ops["MEASURE"])
	assert.Equal(t, 2*2, ops["MCX"], "one oracle MCX and one diffusion MCX per iteration")
	assert.Equal(t, len(p.Values), c.NumClbits)
	assert.Equal(t, p.NumQubits(), c.NumQubits)
	require.NoError(t, c.Validate())

	for i, g := range c.Gates[len(c.Gates)-len(p.Values):] {
		assert.Equal(t, "MEASURE", g.Type)
		assert.Equal(t, r.Index.Qubit(i), g.Target)
		assert.Equal(t, r.Output.Bit(i), g.Cbit)
	}
	// Two diffusion phases of π each.
	assert.InDelta(t, 2*math.Pi, c.GlobalPhase, amplitudeTol)
}

func TestSolverShortOutputRegister(t *testing.T) {
	idx, val, aux, _ := testRegisters(3, 3)
	out := ClassicalRegister{Name: "out", Bits: []int{0, 1}}
	c := SubsetSumSolver(3, []int{1, 2, 3}, 1, idx, val, aux, out)
	assert.Error(t, c.Validate())
}

func TestGroverOperatorPhase(t *testing.T) {
	idx, val, aux, _ := testRegisters(2, 2)
	oracle := SubsetSumOracle(1, []int{1, 2}, idx, val, aux)
	g := GroverOperator(oracle, idx.Qubits)

	assert.Equal(t, "grover", g.Name)
	assert.InDelta(t, math.Pi, g.GlobalPhase, amplitudeTol)
	assert.Len(t, g.Gates, len(oracle.Gates)+4*2+3)
}

func TestGroverSingleQubitReflection(t *testing.T) {
	c := &Circuit{NumQubits: 1}
	c.X(0)
	c.X(0)
	g := GroverOperator(c, []int{0})
	assert.Equal(t, 1, g.CountOps()["Z"])
	assert.Zero(t, g.CountOps()["MCX"])

	// The reflection about |+⟩ on one qubit is X.
	state, err := Simulate(g)
	require.NoError(t, err)
	requireBasis(t, state, 1, 1)
}
