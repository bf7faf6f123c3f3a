package main

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueWidth(t *testing.T) {
	tests := []struct {
		values []int
		want   int
	}{
		{nil, 1},
		{[]int{0, 0}, 1},
		{[]int{1}, 1},
		{[]int{1, 2, 3}, 3},
		{[]int{8}, 4},
		{[]int{5, 7, 4}, 5},
		{[]int{1 << 62, 1 << 62}, 64},
		{[]int{math.MaxInt, 1}, 64},
		{[]int{math.MaxInt, math.MaxInt, 2}, 64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValueWidth(tt.values), "values %v", tt.values)
	}
}

func TestAdderRotationsFullWidth(t *testing.T) {
	// 2^62 in a 64-qubit register only reaches the two top positions.
	rots := AdderRotations([]int{1 << 62}, 64, BigEndian)
	require.Len(t, rots, 2)
	assert.Equal(t, 62, rots[0].Target)
	assert.InDelta(t, math.Pi, rots[0].Angle, 1e-12)
	assert.Equal(t, 63, rots[1].Target)
	assert.InDelta(t, math.Pi/2, rots[1].Angle, 1e-12)
}

func TestAdderRotations(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		width  int
		endian Endianness
		want   []Rotation
	}{
		{"single bit", []int{1}, 1, LittleEndian, []Rotation{{0, 0, math.Pi}}},
		{"one into two qubits", []int{1}, 2, LittleEndian, []Rotation{{0, 0, math.Pi / 2}, {0, 1, math.Pi}}},
		{"one into two qubits big", []int{1}, 2, BigEndian, []Rotation{{0, 0, math.Pi}, {0, 1, math.Pi / 2}}},
		{"three wraps accumulator", []int{3}, 2, LittleEndian, []Rotation{{0, 0, 3 * math.Pi / 2}, {0, 1, math.Pi}}},
		{"zero contributes nothing", []int{0}, 3, LittleEndian, nil},
		{"value at modulus", []int{4}, 2, LittleEndian, nil},
		{"second term", []int{0, 2}, 2, LittleEndian, []Rotation{{1, 0, math.Pi}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdderRotations(tt.values, tt.width, tt.endian)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Term, got[i].Term)
				assert.Equal(t, tt.want[i].Target, got[i].Target)
				assert.InDelta(t, tt.want[i].Angle, got[i].Angle, 1e-12)
			}
		})
	}
}

func TestAdderRotationsEndianMirror(t *testing.T) {
	values := []int{1, 2, 3, 7, 11, 0, 5}
	width := ValueWidth(values)

	little := AdderRotations(values, width, LittleEndian)
	big := AdderRotations(values, width, BigEndian)
	require.Len(t, big, len(little))

	for i := range little {
		little[i].Target = width - 1 - little[i].Target
	}
	byTermTarget := func(a, b Rotation) int {
		if a.Term != b.Term {
			return a.Term - b.Term
		}
		return a.Target - b.Target
	}
	slices.SortFunc(little, byTermTarget)
	slices.SortFunc(big, byTermTarget)
	for i := range little {
		assert.Equal(t, little[i].Term, big[i].Term)
		assert.Equal(t, little[i].Target, big[i].Target)
		assert.InDelta(t, little[i].Angle, big[i].Angle, 1e-12)
	}
}

func TestAdderRotationsAnglesInRange(t *testing.T) {
	for _, r := range AdderRotations([]int{13, 9, 31}, 6, LittleEndian) {
		assert.Greater(t, r.Angle, 0.0)
		assert.Less(t, r.Angle, 2*math.Pi)
	}
}

func TestMultiAdderSums(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		width  int
	}{
		{"small", []int{1, 2, 3}, 3},
		{"wraps modulo", []int{5, 7}, 3},
		{"with zero", []int{0, 6, 1}, 3},
		{"single", []int{3}, 2},
	}

	for _, tt := range tests {
		for _, endian := range []Endianness{LittleEndian, BigEndian} {
			t.Run(tt.name+"/"+endian.String(), func(t *testing.T) {
				idx, val, _, _ := testRegisters(len(tt.values), tt.width)
				c := MultiAdder(tt.values, idx, val, AdderOptions{Endian: endian})
				modulus := 1 << tt.width

				for x := 0; x < 1<<len(tt.values); x++ {
					for s := 0; s < modulus; s++ {
						state, err := SimulateFrom(c, basisIndex([]QuantumRegister{idx, val}, x, s))
						require.NoError(t, err)
						want := (s + int(subsetSum(tt.values, x))) % modulus
						requireBasis(t, state, basisIndex([]QuantumRegister{idx, val}, x, want), 1)
					}
				}
			})
		}
	}
}

func TestMultiAdderInverseIsIdentity(t *testing.T) {
	values := []int{3, 1, 6}
	idx, val, _, _ := testRegisters(len(values), ValueWidth(values))
	c := MultiAdder(values, idx, val, AdderOptions{})
	roundTrip := c.Compose(c.Inverse())

	for basis := 0; basis < 1<<roundTrip.NumQubits; basis++ {
		state, err := SimulateFrom(roundTrip, basis)
		require.NoError(t, err)
		requireBasis(t, state, basis, 1)
	}
}

func TestIllustratedAdderMatchesDecomposed(t *testing.T) {
	values := []int{1, 2, 3}
	idx, val, _, _ := testRegisters(len(values), ValueWidth(values))

	for _, endian := range []Endianness{LittleEndian, BigEndian} {
		plain := MultiAdder(values, idx, val, AdderOptions{Endian: endian})
		illustrated := MultiAdder(values, idx, val, AdderOptions{Endian: endian, Illustrate: true})

		ops := illustrated.CountOps()
		assert.Equal(t, 2, ops["QFT"])
		assert.Equal(t, len(values)+1, ops["BARRIER"])

		var stripped []Gate
		for _, g := range illustrated.Decompose().Gates {
			if g.Type != "BARRIER" {
				stripped = append(stripped, g)
			}
		}
		require.Len(t, stripped, len(plain.Gates))
		for i, g := range plain.Gates {
			assert.Equal(t, g.Type, stripped[i].Type, "gate %d", i)
			assert.Equal(t, g.Target, stripped[i].Target, "gate %d", i)
			assert.Equal(t, g.Control, stripped[i].Control, "gate %d", i)
			if len(g.Params) > 0 {
				assert.InDelta(t, g.Params[0], stripped[i].Params[0], 1e-12, "gate %d", i)
			}
		}

		// Same unitary, column by column
		for basis := 0; basis < 1<<plain.NumQubits; basis++ {
			want, err := SimulateFrom(plain, basis)
			require.NoError(t, err)
			got, err := SimulateFrom(illustrated, basis)
			require.NoError(t, err)
			requireSameState(t, want, got)
		}
	}
}

func TestMultiAdderShortIndexRegister(t *testing.T) {
	// Fewer index qubits than values: the circuit builds but does not validate.
	idx, val, _, _ := testRegisters(1, 2)
	c := MultiAdder([]int{1, 2}, idx, val, AdderOptions{})
	require.Error(t, c.Validate())

	_, err := Simulate(c)
	assert.Error(t, err)
}

func TestParseEndianness(t *testing.T) {
	for in, want := range map[string]Endianness{"": LittleEndian, "little": LittleEndian, "BIG": BigEndian} {
		got, err := ParseEndianness(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseEndianness("middle")
	assert.Error(t, err)
}
