package main

import "math"

// QFT returns the quantum Fourier transform over qubits, qubits[0] being
// the least significant. With swaps, qubit k of the output carries the
// phase e^{2πi·x·2^k/2^n}; without swaps the output order is reversed.
func QFT(qubits []int, swaps bool) *Circuit {
	n := len(qubits)
	c := &Circuit{Name: "qft"}
	for j := n - 1; j >= 0; j-- {
		c.H(qubits[j])
		for k := j - 1; k >= 0; k-- {
			c.CP(math.Pi*math.Pow(2, float64(k-j)), qubits[j], qubits[k])
		}
	}
	if swaps {
		for i := 0; i < n/2; i++ {
			c.Swap(qubits[i], qubits[n-1-i])
		}
	}
	return c
}
