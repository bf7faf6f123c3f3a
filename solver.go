package main

import "math"

// GroverOperator returns the amplification step: oracle followed by a
// reflection about the uniform state of the given qubits. The reflection
// is realised as H X (MCZ) X H with a global phase of π.
func GroverOperator(oracle *Circuit, reflect []int) *Circuit {
	diffusion := &Circuit{Name: "diffusion", NumQubits: oracle.NumQubits}
	for _, q := range reflect {
		diffusion.H(q)
	}
	for _, q := range reflect {
		diffusion.X(q)
	}
	if n := len(reflect); n == 1 {
		diffusion.Z(reflect[0])
	} else if n > 1 {
		last := reflect[n-1]
		diffusion.H(last)
		diffusion.MCX(reflect[:n-1], last)
		diffusion.H(last)
	}
	for _, q := range reflect {
		diffusion.X(q)
	}
	for _, q := range reflect {
		diffusion.H(q)
	}
	diffusion.GlobalPhase = math.Pi

	g := oracle.Compose(diffusion)
	g.Name = "grover"
	return g
}

// SubsetSumSolver returns the full search circuit: uniform superposition
// over idx, iterations Grover steps, then idx[i] measured into out[i].
func SubsetSumSolver(target int, values []int, iterations int, idx, val, aux QuantumRegister, out ClassicalRegister) *Circuit {
	oracle := SubsetSumOracle(target, values, idx, val, aux)
	grover := GroverOperator(oracle, idx.Qubits)

	c := NewCircuit("solver", idx, val, aux)
	for _, q := range idx.Qubits {
		c.H(q)
	}
	c = c.Compose(grover.Repeat(iterations))
	for i, q := range idx.Qubits {
		c.Measure(q, out.Bit(i))
	}
	c.NumClbits = max(c.NumClbits, out.Len())
	c.Name = "solver"
	return c
}
