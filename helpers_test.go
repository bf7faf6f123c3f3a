package main

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amplitudeTol = 1e-9

// requireBasis asserts that s is amp·|index⟩.
func requireBasis(t *testing.T, s *StateVector, index int, amp complex128) {
	t.Helper()
	got := s.Amplitudes[index]
	require.InDeltaf(t, 0, cmplx.Abs(got-amp), amplitudeTol, "amplitude at %d: got %v, want %v", index, got, amp)
	rest := 0.0
	for i, a := range s.Amplitudes {
		if i != index {
			rest += real(a * cmplx.Conj(a))
		}
	}
	assert.InDelta(t, 0, rest, amplitudeTol, "probability outside basis state %d", index)
}

// requireSameState asserts two states are equal amplitude by amplitude.
func requireSameState(t *testing.T, want, got *StateVector) {
	t.Helper()
	require.Equal(t, len(want.Amplitudes), len(got.Amplitudes))
	for i := range want.Amplitudes {
		require.InDeltaf(t, 0, cmplx.Abs(want.Amplitudes[i]-got.Amplitudes[i]), amplitudeTol, "amplitude %d", i)
	}
}

// testRegisters allocates idx, val and aux for n values of the given width.
func testRegisters(n, width int) (idx, val, aux QuantumRegister, out ClassicalRegister) {
	l := &Layout{}
	idx = l.AddQuantumRegister("idx", n)
	val = l.AddQuantumRegister("val", width)
	aux = l.AddQuantumRegister("aux", 1)
	out = l.AddClassicalRegister("out", n)
	return
}
