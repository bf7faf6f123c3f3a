package main

import (
	"math"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Endianness selects where Fourier-basis phases land in the value register.
type Endianness int

const (
	// LittleEndian uses a QFT with its final swap layer.
	LittleEndian Endianness = iota
	// BigEndian uses a swap-free QFT, so rotation targets are mirrored.
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ParseEndianness accepts "little", "big" or "" (little).
func ParseEndianness(s string) (Endianness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "little":
		return LittleEndian, nil
	case "big":
		return BigEndian, nil
	}
	return LittleEndian, errors.Errorf("unknown endianness %q", s)
}

// AdderOptions controls how MultiAdder lays out its circuit.
type AdderOptions struct {
	Endian     Endianness
	Illustrate bool // keep QFT boxes and add barriers between terms
}

// Rotation is one controlled phase of the Fourier adder: Term indexes the
// value (and its index qubit), Target the value-register position.
type Rotation struct {
	Term   int
	Target int
	Angle  float64
}

// ValueWidth returns the value-register width needed to hold the sum of
// values, at least one qubit. Negative values are ignored. A sum that
// overflows 64 bits saturates at 64.
func ValueWidth(values []int) int {
	sum, ok := valueSum(values)
	if !ok {
		return 64
	}
	return max(1, bits.Len64(sum))
}

// valueSum adds the non-negative values, reporting false on overflow.
func valueSum(values []int) (uint64, bool) {
	var sum uint64
	for _, v := range values {
		if v <= 0 {
			continue
		}
		next, carry := bits.Add64(sum, uint64(v), 0)
		if carry != 0 {
			return 0, false
		}
		sum = next
	}
	return sum, true
}

// widthMask returns 2^width - 1, the mask for arithmetic modulo 2^width.
func widthMask(width int) uint64 {
	switch {
	case width <= 0:
		return 0
	case width >= 64:
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}

// AdderRotations computes the controlled phases that add each value into
// a width-qubit Fourier-basis register. Accumulated phases are reduced
// modulo 2^width and zero phases are omitted.
func AdderRotations(values []int, width int, endian Endianness) []Rotation {
	if width <= 0 {
		return nil
	}
	mask := widthMask(width)
	half := float64(uint64(1) << (width - 1))

	var rots []Rotation
	for term, value := range values {
		acc := make([]uint64, width)
		for i := 0; i < width; i++ {
			if (uint64(value)>>i)&1 == 0 {
				continue
			}
			for j := i; j < width; j++ {
				dest := j
				if endian == LittleEndian {
					dest = width - j - 1
				}
				acc[dest] += uint64(1) << (i + width - j - 1)
			}
		}
		for dest, a := range acc {
			a &= mask
			if a == 0 {
				continue
			}
			rots = append(rots, Rotation{Term: term, Target: dest, Angle: math.Pi * float64(a) / half})
		}
	}
	return rots
}

// MultiAdder returns a circuit mapping |x⟩|s⟩ to |x⟩|s + Σ x_i·values[i]⟩,
// with the sum taken modulo 2^len(val). idx[i] controls values[i].
func MultiAdder(values []int, idx, val QuantumRegister, opts AdderOptions) *Circuit {
	c := NewCircuit("adder", idx, val)
	swaps := opts.Endian == LittleEndian
	span := append(append([]int{}, idx.Qubits...), val.Qubits...)

	if opts.Illustrate {
		c.QFTBox(val.Qubits, swaps)
		c.Barrier(span...)
	} else {
		c = c.Compose(QFT(val.Qubits, swaps))
	}

	rots := AdderRotations(values, val.Len(), opts.Endian)
	for term := range values {
		for _, r := range rots {
			if r.Term == term {
				c.CP(r.Angle, idx.Qubit(term), val.Qubit(r.Target))
			}
		}
		if opts.Illustrate {
			c.Barrier(span...)
		}
	}

	if opts.Illustrate {
		c.QFTBox(val.Qubits, swaps)
		c.Gates[len(c.Gates)-1].IsDagger = true
	} else {
		c = c.Compose(QFT(val.Qubits, swaps).Inverse())
	}
	c.Name = "adder"
	return c
}
