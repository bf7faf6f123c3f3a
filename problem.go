package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// MaxProblemQubits is the largest register layout the solver will simulate.
const MaxProblemQubits = 20

// Problem is one subset-sum instance plus how to build its circuits.
type Problem struct {
	Values     []int  `yaml:"values"`
	Target     int    `yaml:"target"`
	Iterations *int   `yaml:"iterations,omitempty"` // nil selects SuggestedIterations
	Endian     string `yaml:"endian,omitempty"`
	Illustrate bool   `yaml:"illustrate,omitempty"`
}

// Registers is the register allocation shared by every stage.
type Registers struct {
	Layout *Layout
	Index  QuantumRegister
	Value  QuantumRegister
	Aux    QuantumRegister
	Output ClassicalRegister
}

// LoadProblem reads a YAML problem file.
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read problem file")
	}
	p := &Problem{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "parse problem file")
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid problem in %s", path)
	}
	return p, nil
}

// ParseValues parses a flag value like "1,2,3".
func ParseValues(s string) ([]int, error) {
	return parseIntList(s)
}

// Validate rejects instances the circuits cannot represent or the
// simulator cannot run.
func (p *Problem) Validate() error {
	if len(p.Values) == 0 {
		return errors.New("values must not be empty")
	}
	for i, v := range p.Values {
		if v < 0 {
			return errors.Errorf("value %d is negative (%d)", i, v)
		}
	}
	if _, ok := valueSum(p.Values); !ok {
		return errors.New("values sum overflows 64 bits")
	}
	if p.Target < 0 {
		return errors.Errorf("target is negative (%d)", p.Target)
	}
	if p.Iterations != nil && *p.Iterations < 0 {
		return errors.Errorf("iterations is negative (%d)", *p.Iterations)
	}
	if _, err := ParseEndianness(p.Endian); err != nil {
		return err
	}
	if n := p.NumQubits(); n > MaxProblemQubits {
		return errors.Errorf("problem needs %d qubits, limit is %d", n, MaxProblemQubits)
	}
	if w := p.Width(); p.Target >= 1<<w {
		return errors.Errorf("target %d does not fit in %d value qubits", p.Target, w)
	}
	return nil
}

// Width returns the value-register width.
func (p *Problem) Width() int {
	return ValueWidth(p.Values)
}

// NumQubits returns index + value + aux qubits.
func (p *Problem) NumQubits() int {
	return len(p.Values) + p.Width() + 1
}

// Endianness returns the parsed endianness, little when unset or invalid.
func (p *Problem) Endianness() Endianness {
	e, _ := ParseEndianness(p.Endian)
	return e
}

// IterationCount returns the configured iteration count or the
// suggested one for the problem's marked set.
func (p *Problem) IterationCount() int {
	if p.Iterations != nil {
		return *p.Iterations
	}
	marked := MarkedSubsets(p.Values, p.Target, p.Width())
	return SuggestedIterations(len(p.Values), len(marked))
}

// Registers allocates idx, val, aux and out on a fresh layout.
func (p *Problem) Registers() Registers {
	l := &Layout{}
	r := Registers{Layout: l}
	r.Index = l.AddQuantumRegister("idx", len(p.Values))
	r.Value = l.AddQuantumRegister("val", p.Width())
	r.Aux = l.AddQuantumRegister("aux", 1)
	r.Output = l.AddClassicalRegister("out", len(p.Values))
	return r
}

// Adder builds the multi-adder for the problem's values.
func (p *Problem) Adder() *Circuit {
	r := p.Registers()
	c := MultiAdder(p.Values, r.Index, r.Value, AdderOptions{Endian: p.Endianness(), Illustrate: p.Illustrate})
	c.Layout = r.Layout
	return c
}

// Oracle builds the phase oracle for the problem's target.
func (p *Problem) Oracle() *Circuit {
	r := p.Registers()
	c := SubsetSumOracle(p.Target, p.Values, r.Index, r.Value, r.Aux)
	c.Layout = r.Layout
	return c
}

// Solver builds the full search circuit with the given iteration count.
func (p *Problem) Solver(iterations int) *Circuit {
	r := p.Registers()
	c := SubsetSumSolver(p.Target, p.Values, iterations, r.Index, r.Value, r.Aux, r.Output)
	c.Layout = r.Layout
	return c
}
