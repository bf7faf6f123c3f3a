package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// maxSimulatorQubits bounds the dense state allocation.
const maxSimulatorQubits = 24

type Complex = complex128

// StateVector is a dense statevector. Qubit q is bit q of the basis index.
type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

// NewBasisState returns the computational basis state |basis⟩.
func NewBasisState(numQubits, basis int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[basis] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// ApplyGate applies a single decomposed gate. Barriers and measurements
// are no-ops; QFT boxes must be decomposed first.
func (s *StateVector) ApplyGate(g Gate) error {
	switch g.Type {
	case "H":
		s.applyH(g.Target)
	case "X":
		s.applyX(g.Target)
	case "Z":
		s.applyZ(g.Target)
	case "P":
		s.applyP(g.Target, g.Params[0])
	case "CP":
		s.applyCP(g.Control, g.Target, g.Params[0])
	case "SWAP":
		s.applySWAP(g.Control, g.Target)
	case "MCX":
		s.applyMCX(g.Controls, g.Target)
	case "BARRIER", "MEASURE":
	default:
		return errors.Errorf("cannot apply %s gate", g.Type)
	}
	return nil
}

func (s *StateVector) applyH(q int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = hFactor * (a + b)
			s.Amplitudes[j] = hFactor * (a - b)
		}
	}
}

func (s *StateVector) applyX(q int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyZ(q int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit != 0 {
			s.Amplitudes[i] *= -1
		}
	}
}

func (s *StateVector) applyP(q int, theta float64) {
	n := len(s.Amplitudes)
	bit := 1 << q
	phase := cmplx.Exp(complex(0, theta))
	for i := 0; i < n; i++ {
		if i&bit != 0 {
			s.Amplitudes[i] *= phase
		}
	}
}

func (s *StateVector) applyCP(control, target int, theta float64) {
	n := len(s.Amplitudes)
	mask := 1<<control | 1<<target
	phase := cmplx.Exp(complex(0, theta))
	for i := 0; i < n; i++ {
		if i&mask == mask {
			s.Amplitudes[i] *= phase
		}
	}
}

func (s *StateVector) applySWAP(q1, q2 int) {
	n := len(s.Amplitudes)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i & ^bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyMCX(controls []int, target int) {
	n := len(s.Amplitudes)
	cMask := 0
	for _, c := range controls {
		cMask |= 1 << c
	}
	tBit := 1 << target
	for i := 0; i < n; i++ {
		if i&cMask == cMask && i&tBit == 0 {
			j := i | tBit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyGlobalPhase(phi float64) {
	if phi == 0 {
		return
	}
	phase := cmplx.Exp(complex(0, phi))
	for i := range s.Amplitudes {
		s.Amplitudes[i] *= phase
	}
}

// Simulate runs the unitary part of c from |0…0⟩.
func Simulate(c *Circuit) (*StateVector, error) {
	return SimulateFrom(c, 0)
}

// SimulateFrom runs the unitary part of c from the basis state |basis⟩.
// Measurements and barriers are skipped; QFT boxes run through their
// decomposition.
func SimulateFrom(c *Circuit, basis int) (*StateVector, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate circuit")
	}
	numQubits := max(c.NumQubits, 1)
	if numQubits > maxSimulatorQubits {
		return nil, errors.Errorf("circuit has %d qubits, simulator limit is %d", numQubits, maxSimulatorQubits)
	}
	if basis < 0 || basis >= 1<<numQubits {
		return nil, errors.Errorf("basis state %d out of range for %d qubits", basis, numQubits)
	}

	state := NewBasisState(numQubits, basis)
	dc := c.Decompose()
	for i, g := range dc.Gates {
		if err := state.ApplyGate(g); err != nil {
			return nil, errors.Wrapf(err, "apply gate %d", i)
		}
	}
	state.applyGlobalPhase(dc.GlobalPhase)
	return state, nil
}

// Probabilities returns |amplitude|² per basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, amp := range s.Amplitudes {
		probs[i] = real(amp * cmplx.Conj(amp))
	}
	return probs
}

// MarginalProbabilities returns the distribution of the register formed
// by qubits, indexed by register value (qubits[k] is bit k).
func (s *StateVector) MarginalProbabilities(qubits []int) []float64 {
	marginal := make([]float64, 1<<len(qubits))
	for i, p := range s.Probabilities() {
		marginal[registerValue(i, qubits)] += p
	}
	return marginal
}

// registerValue extracts the integer held by qubits in basis index i.
func registerValue(i int, qubits []int) int {
	v := 0
	for k, q := range qubits {
		if i&(1<<q) != 0 {
			v |= 1 << k
		}
	}
	return v
}

// basisIndex places register values into a basis index. It is the
// inverse of registerValue for each register.
func basisIndex(regs []QuantumRegister, values ...int) int {
	idx := 0
	for r, reg := range regs {
		for k, q := range reg.Qubits {
			if values[r]&(1<<k) != 0 {
				idx |= 1 << q
			}
		}
	}
	return idx
}

// MeasurementDistribution returns the outcome distribution over the
// circuit's classical bits, indexed by the integer whose bit b is
// classical bit b. A later measurement into the same bit wins.
func MeasurementDistribution(c *Circuit, s *StateVector) ([]float64, error) {
	if c.NumClbits == 0 {
		return nil, errors.New("circuit has no classical bits")
	}
	if c.NumClbits > maxSimulatorQubits {
		return nil, errors.Errorf("too many classical bits: %d", c.NumClbits)
	}
	source := make(map[int]int)
	for _, g := range c.Gates {
		if g.Type == "MEASURE" {
			source[g.Cbit] = g.Target
		}
	}
	if len(source) == 0 {
		return nil, errors.New("circuit has no measurements")
	}

	qubits := make([]int, c.NumClbits)
	for b := range qubits {
		q, ok := source[b]
		if !ok {
			q = -1
		}
		qubits[b] = q
	}

	dist := make([]float64, 1<<c.NumClbits)
	for i, p := range s.Probabilities() {
		outcome := 0
		for b, q := range qubits {
			if q >= 0 && i&(1<<q) != 0 {
				outcome |= 1 << b
			}
		}
		dist[outcome] += p
	}
	return dist, nil
}

// Sample draws shots outcomes from dist and returns counts keyed by
// bitstrings of numBits characters, most-significant bit first.
func Sample(rng *rand.Rand, dist []float64, numBits, shots int) (map[string]int, error) {
	total := floats.Sum(dist)
	if total <= 0 {
		return nil, errors.New("distribution has no mass")
	}
	cumulative := floats.CumSum(make([]float64, len(dist)), dist)

	counts := make(map[string]int)
	for range shots {
		r := rng.Float64() * total
		outcome := sort.SearchFloat64s(cumulative, r)
		for outcome < len(dist)-1 && dist[outcome] == 0 {
			outcome++
		}
		counts[formatBits(outcome, numBits)]++
	}
	return counts, nil
}

// formatBits renders v as a numBits-wide binary string, msb first.
func formatBits(v, numBits int) string {
	return fmt.Sprintf("%0*b", numBits, v)
}

// QubitProbability is the marginal distribution of a single qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) GetQubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i, prob := range s.Probabilities() {
		for q := 0; q < s.NumQubits; q++ {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}
	return probs
}

// BasisState is one populated basis state of a statevector.
type BasisState struct {
	Index     int
	Amplitude Complex
	Prob      float64
	Phase     float64
	Hamming   int
}

// NonZeroStates lists basis states with probability above threshold, in
// basis order.
func (s *StateVector) NonZeroStates(threshold float64) []BasisState {
	var states []BasisState
	for i, amp := range s.Amplitudes {
		prob := real(amp * cmplx.Conj(amp))
		if prob > threshold {
			states = append(states, BasisState{
				Index:     i,
				Amplitude: amp,
				Prob:      prob,
				Phase:     cmplx.Phase(amp),
				Hamming:   bitsCount(i),
			})
		}
	}
	return states
}

func bitsCount(x int) int {
	count := 0
	for x > 0 {
		count += x & 1
		x >>= 1
	}
	return count
}
