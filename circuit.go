package main

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pre-compiled regexps for QASM parsing.
var (
	qregRegex        = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\];?$`)
	cregRegex        = regexp.MustCompile(`^creg\s+(\w+)\[(\d+)\];?$`)
	measureRegex     = regexp.MustCompile(`^measure\s+(\w+)\[(\d+)\]\s*->\s*(\w+)\[(\d+)\];?$`)
	gateLineRegex    = regexp.MustCompile(`^(\w+)\s*(?:\(\s*(` + paramPattern + `)\s*\))?\s+(.+?);?$`)
	operandRegex     = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
	mcxNameRegex     = regexp.MustCompile(`^mcx_(\d+)$`)
	globalPhaseRegex = regexp.MustCompile(`^//\s*global phase:\s*(` + paramPattern + `)$`)
)

// Gate represents a single operation in a circuit. Qubit fields hold
// absolute indices into the circuit's qubit space.
type Gate struct {
	Type     string
	Target   int       // -1 for gates that only span Qubits
	Control  int       // -1 if not a controlled gate
	Controls []int     // control qubits of an MCX
	Qubits   []int     // span of QFT boxes and barriers
	Cbit     int       // classical bit written by MEASURE, -1 otherwise
	Step     int       // column assigned for rendering
	Params   []float64 // phase angles for P and CP
	IsDagger bool      // adjoint of a QFT box
	NoSwaps  bool      // QFT box without the final swap layer
}

// qubits returns every qubit the gate acts on.
func (g Gate) qubits() []int {
	var qs []int
	if g.Target >= 0 || (g.Type != "BARRIER" && g.Type != "QFT") {
		qs = append(qs, g.Target)
	}
	if g.Control >= 0 {
		qs = append(qs, g.Control)
	}
	qs = append(qs, g.Controls...)
	qs = append(qs, g.Qubits...)
	return qs
}

// gateReferences reports whether the gate references the given qubit.
func (g Gate) gateReferences(qubit int) bool {
	return slices.Contains(g.qubits(), qubit)
}

// clone returns a deep copy of the gate.
func (g Gate) clone() Gate {
	g.Controls = slices.Clone(g.Controls)
	g.Qubits = slices.Clone(g.Qubits)
	g.Params = slices.Clone(g.Params)
	return g
}

// QuantumRegister is a named group of qubits.
type QuantumRegister struct {
	Name   string
	Qubits []int
}

// Len returns the register width.
func (r QuantumRegister) Len() int {
	return len(r.Qubits)
}

// Qubit returns the absolute index of the i-th qubit, or -1 when the
// register has no such qubit.
func (r QuantumRegister) Qubit(i int) int {
	if i < 0 || i >= len(r.Qubits) {
		return -1
	}
	return r.Qubits[i]
}

// ClassicalRegister is a named group of classical bits.
type ClassicalRegister struct {
	Name string
	Bits []int
}

// Len returns the register width.
func (r ClassicalRegister) Len() int {
	return len(r.Bits)
}

// Bit returns the absolute index of the i-th bit, or -1.
func (r ClassicalRegister) Bit(i int) int {
	if i < 0 || i >= len(r.Bits) {
		return -1
	}
	return r.Bits[i]
}

// Layout allocates contiguous qubit and bit indices to named registers.
type Layout struct {
	NumQubits int
	NumClbits int
	QRegs     []QuantumRegister
	CRegs     []ClassicalRegister
}

// AddQuantumRegister allocates size new qubits.
func (l *Layout) AddQuantumRegister(name string, size int) QuantumRegister {
	reg := QuantumRegister{Name: name, Qubits: make([]int, size)}
	for i := range size {
		reg.Qubits[i] = l.NumQubits + i
	}
	l.NumQubits += size
	l.QRegs = append(l.QRegs, reg)
	return reg
}

// AddClassicalRegister allocates size new classical bits.
func (l *Layout) AddClassicalRegister(name string, size int) ClassicalRegister {
	reg := ClassicalRegister{Name: name, Bits: make([]int, size)}
	for i := range size {
		reg.Bits[i] = l.NumClbits + i
	}
	l.NumClbits += size
	l.CRegs = append(l.CRegs, reg)
	return reg
}

// qubitName resolves an absolute qubit index to "reg[i]".
func (l *Layout) qubitName(q int) string {
	for _, reg := range l.QRegs {
		if i := slices.Index(reg.Qubits, q); i >= 0 {
			return fmt.Sprintf("%s[%d]", reg.Name, i)
		}
	}
	return fmt.Sprintf("q[%d]", q)
}

// bitName resolves an absolute classical bit index to "reg[i]".
func (l *Layout) bitName(b int) string {
	for _, reg := range l.CRegs {
		if i := slices.Index(reg.Bits, b); i >= 0 {
			return fmt.Sprintf("%s[%d]", reg.Name, i)
		}
	}
	return fmt.Sprintf("c[%d]", b)
}

// Circuit is an ordered gate sequence over absolute qubit indices.
// Builders mutate a circuit they own; Compose, Repeat, Inverse and
// Decompose always return a new circuit.
type Circuit struct {
	Name        string
	Layout      *Layout // optional register naming, used by ToQASM
	NumQubits   int
	NumClbits   int
	Gates       []Gate
	GlobalPhase float64
}

// NewCircuit creates an empty circuit wide enough for the given registers.
func NewCircuit(name string, regs ...QuantumRegister) *Circuit {
	c := &Circuit{Name: name}
	for _, reg := range regs {
		for _, q := range reg.Qubits {
			c.NumQubits = max(c.NumQubits, q+1)
		}
	}
	return c
}

// AddGate appends a gate and grows the qubit and bit counts to cover it.
func (c *Circuit) AddGate(g Gate) {
	for _, q := range g.qubits() {
		c.NumQubits = max(c.NumQubits, q+1)
	}
	if g.Cbit >= 0 {
		c.NumClbits = max(c.NumClbits, g.Cbit+1)
	}
	c.Gates = append(c.Gates, g)
}

func single(gateType string, target int) Gate {
	return Gate{Type: gateType, Target: target, Control: -1, Cbit: -1}
}

// H appends a Hadamard gate.
func (c *Circuit) H(q int) { c.AddGate(single("H", q)) }

// X appends a Pauli-X gate.
func (c *Circuit) X(q int) { c.AddGate(single("X", q)) }

// Z appends a Pauli-Z gate.
func (c *Circuit) Z(q int) { c.AddGate(single("Z", q)) }

// P appends a phase gate diag(1, e^{i theta}).
func (c *Circuit) P(theta float64, q int) {
	g := single("P", q)
	g.Params = []float64{theta}
	c.AddGate(g)
}

// CP appends a controlled phase gate.
func (c *Circuit) CP(theta float64, control, target int) {
	c.AddGate(Gate{Type: "CP", Target: target, Control: control, Cbit: -1, Params: []float64{theta}})
}

// Swap appends a SWAP gate.
func (c *Circuit) Swap(a, b int) {
	c.AddGate(Gate{Type: "SWAP", Target: b, Control: a, Cbit: -1})
}

// MCX appends an X on target controlled by every qubit in controls.
func (c *Circuit) MCX(controls []int, target int) {
	c.AddGate(Gate{Type: "MCX", Target: target, Control: -1, Controls: slices.Clone(controls), Cbit: -1})
}

// Measure appends a computational-basis measurement of q into cbit.
func (c *Circuit) Measure(q, cbit int) {
	g := single("MEASURE", q)
	g.Cbit = cbit
	c.AddGate(g)
}

// Barrier appends a barrier over the given qubits.
func (c *Circuit) Barrier(qubits ...int) {
	c.AddGate(Gate{Type: "BARRIER", Target: -1, Control: -1, Qubits: slices.Clone(qubits), Cbit: -1})
}

// QFTBox appends an undecomposed quantum Fourier transform over qubits,
// least-significant qubit first.
func (c *Circuit) QFTBox(qubits []int, swaps bool) {
	c.AddGate(Gate{Type: "QFT", Target: -1, Control: -1, Qubits: slices.Clone(qubits), Cbit: -1, NoSwaps: !swaps})
}

// Compose returns a new circuit running c followed by other.
func (c *Circuit) Compose(other *Circuit) *Circuit {
	out := c.clone()
	for _, g := range other.Gates {
		out.AddGate(g.clone())
	}
	out.NumQubits = max(out.NumQubits, other.NumQubits)
	out.NumClbits = max(out.NumClbits, other.NumClbits)
	out.GlobalPhase += other.GlobalPhase
	if out.Layout == nil {
		out.Layout = other.Layout
	}
	return out
}

// Repeat returns c composed with itself n times. n <= 0 gives an empty
// circuit of the same width.
func (c *Circuit) Repeat(n int) *Circuit {
	out := &Circuit{Name: c.Name, Layout: c.Layout, NumQubits: c.NumQubits, NumClbits: c.NumClbits}
	for range n {
		out = out.Compose(c)
	}
	return out
}

// Inverse returns the adjoint circuit. Measurements have no adjoint; they
// are carried over flagged as dagger and rejected by Validate.
func (c *Circuit) Inverse() *Circuit {
	out := &Circuit{
		Name:        c.Name + "_dg",
		Layout:      c.Layout,
		NumQubits:   c.NumQubits,
		NumClbits:   c.NumClbits,
		GlobalPhase: -c.GlobalPhase,
	}
	for i := len(c.Gates) - 1; i >= 0; i-- {
		g := c.Gates[i].clone()
		switch g.Type {
		case "P", "CP":
			for j := range g.Params {
				g.Params[j] = -g.Params[j]
			}
		case "QFT", "MEASURE":
			g.IsDagger = !g.IsDagger
		}
		out.AddGate(g)
	}
	return out
}

// Decompose returns a copy with every QFT box expanded into H, CP and
// SWAP gates.
func (c *Circuit) Decompose() *Circuit {
	out := &Circuit{
		Name:        c.Name,
		Layout:      c.Layout,
		NumQubits:   c.NumQubits,
		NumClbits:   c.NumClbits,
		GlobalPhase: c.GlobalPhase,
	}
	for _, g := range c.Gates {
		if g.Type != "QFT" {
			out.AddGate(g.clone())
			continue
		}
		qft := QFT(g.Qubits, !g.NoSwaps)
		if g.IsDagger {
			qft = qft.Inverse()
		}
		for _, sub := range qft.Gates {
			out.AddGate(sub)
		}
	}
	return out
}

// CountOps returns the number of gates per type.
func (c *Circuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, g := range c.Gates {
		counts[g.Type]++
	}
	return counts
}

// Depth returns the length of the longest qubit-dependency chain.
func (c *Circuit) Depth() int {
	return FromCircuit(c).Depth()
}

// Validate reports the first structurally invalid gate.
func (c *Circuit) Validate() error {
	for i, g := range c.Gates {
		if err := c.validateGate(g); err != nil {
			return errors.Wrapf(err, "gate %d (%s)", i, g.Type)
		}
	}
	return nil
}

func (c *Circuit) validateGate(g Gate) error {
	switch g.Type {
	case "H", "X", "Z", "P", "CP", "SWAP", "MCX", "MEASURE", "BARRIER", "QFT":
	default:
		return errors.Errorf("unknown gate type %q", g.Type)
	}

	qs := g.qubits()
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if q < 0 || q >= c.NumQubits {
			return errors.Errorf("qubit %d out of range [0, %d)", q, c.NumQubits)
		}
		if seen[q] {
			return errors.Errorf("qubit %d used twice", q)
		}
		seen[q] = true
	}

	if (g.Type == "CP" || g.Type == "SWAP") && g.Control < 0 {
		return errors.New("missing control qubit")
	}

	switch g.Type {
	case "P", "CP":
		if len(g.Params) != 1 {
			return errors.Errorf("expected 1 parameter, got %d", len(g.Params))
		}
	case "MCX":
		if len(g.Controls) == 0 {
			return errors.New("no control qubits")
		}
	case "MEASURE":
		if g.IsDagger {
			return errors.New("measurement cannot be inverted")
		}
		if g.Cbit < 0 || g.Cbit >= c.NumClbits {
			return errors.Errorf("classical bit %d out of range [0, %d)", g.Cbit, c.NumClbits)
		}
	case "QFT":
		if len(g.Qubits) == 0 {
			return errors.New("empty QFT span")
		}
	}
	return nil
}

func (c *Circuit) clone() *Circuit {
	out := &Circuit{
		Name:        c.Name,
		Layout:      c.Layout,
		NumQubits:   c.NumQubits,
		NumClbits:   c.NumClbits,
		GlobalPhase: c.GlobalPhase,
		Gates:       make([]Gate, 0, len(c.Gates)),
	}
	for _, g := range c.Gates {
		out.Gates = append(out.Gates, g.clone())
	}
	return out
}

// layoutOrDefault returns the circuit layout, or a flat q/c layout
// covering the circuit when none is attached.
func (c *Circuit) layoutOrDefault() *Layout {
	if c.Layout != nil && c.Layout.NumQubits >= c.NumQubits && c.Layout.NumClbits >= c.NumClbits {
		return c.Layout
	}
	l := &Layout{}
	l.AddQuantumRegister("q", max(c.NumQubits, 1))
	if c.NumClbits > 0 {
		l.AddClassicalRegister("c", c.NumClbits)
	}
	return l
}

// ToQASM generates OpenQASM 2.0 output. QFT boxes are decomposed first,
// and MCX gates with three or more controls use mcx_N gates defined in
// the header.
func (c *Circuit) ToQASM() string {
	dc := c.Decompose()
	layout := c.layoutOrDefault()

	maxControls := 0
	for _, g := range dc.Gates {
		if g.Type == "MCX" {
			maxControls = max(maxControls, len(g.Controls))
		}
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	if defs := qasmGateDefs(maxControls); defs != "" {
		sb.WriteString(defs)
		sb.WriteString("\n")
	}
	for _, reg := range layout.QRegs {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", reg.Name, reg.Len())
	}
	for _, reg := range layout.CRegs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", reg.Name, reg.Len())
	}
	sb.WriteString("\n")

	if phase := math.Mod(dc.GlobalPhase, 2*math.Pi); math.Abs(phase) > 1e-12 {
		fmt.Fprintf(&sb, "// global phase: %s\n", formatParam(phase))
	}

	names := func(qs []int) string {
		parts := make([]string, len(qs))
		for i, q := range qs {
			parts[i] = layout.qubitName(q)
		}
		return strings.Join(parts, ", ")
	}

	for _, g := range dc.Gates {
		switch g.Type {
		case "BARRIER":
			fmt.Fprintf(&sb, "barrier %s;\n", names(g.Qubits))
		case "MEASURE":
			fmt.Fprintf(&sb, "measure %s -> %s;\n", layout.qubitName(g.Target), layout.bitName(g.Cbit))
		case "MCX":
			fmt.Fprintf(&sb, "%s %s;\n", mcxGateName(len(g.Controls)), names(append(slices.Clone(g.Controls), g.Target)))
		case "CP":
			fmt.Fprintf(&sb, "cu1(%s) %s;\n", formatParam(g.Params[0]), names([]int{g.Control, g.Target}))
		case "SWAP":
			fmt.Fprintf(&sb, "swap %s;\n", names([]int{g.Control, g.Target}))
		case "P":
			fmt.Fprintf(&sb, "u1(%s) %s;\n", formatParam(g.Params[0]), layout.qubitName(g.Target))
		default:
			fmt.Fprintf(&sb, "%s %s;\n", strings.ToLower(g.Type), layout.qubitName(g.Target))
		}
	}

	return sb.String()
}

// ParseQASM parses the OpenQASM 2.0 dialect written by ToQASM. Gate
// definition blocks are skipped; mcx_N applications become MCX gates.
func ParseQASM(qasm string) (*Circuit, error) {
	layout := &Layout{}
	qregs := make(map[string]QuantumRegister)
	cregs := make(map[string]ClassicalRegister)
	c := &Circuit{Layout: layout}

	resolveQubit := func(operand string) (int, error) {
		matches := operandRegex.FindStringSubmatch(strings.TrimSpace(operand))
		if matches == nil {
			return -1, errors.Errorf("malformed operand %q", operand)
		}
		reg, ok := qregs[matches[1]]
		if !ok {
			return -1, errors.Errorf("unknown qreg %q", matches[1])
		}
		idx, _ := strconv.Atoi(matches[2])
		if q := reg.Qubit(idx); q >= 0 {
			return q, nil
		}
		return -1, errors.Errorf("index %d out of range for qreg %s[%d]", idx, reg.Name, reg.Len())
	}

	inGateDef := false
	lines := strings.Split(qasm, "\n")
	for lineNo, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if inGateDef || strings.HasPrefix(line, "gate ") {
			inGateDef = !strings.Contains(line, "}")
			continue
		}
		if strings.HasPrefix(line, "//") {
			if matches := globalPhaseRegex.FindStringSubmatch(line); matches != nil {
				phase, ok := parseParamExpr(matches[1])
				if !ok {
					return nil, errors.Errorf("line %d: bad global phase %q", lineNo+1, matches[1])
				}
				c.GlobalPhase = phase
			}
			continue
		}
		if strings.HasPrefix(line, "OPENQASM") || strings.HasPrefix(line, "include") {
			continue
		}

		if matches := qregRegex.FindStringSubmatch(line); matches != nil {
			n, _ := strconv.Atoi(matches[2])
			qregs[matches[1]] = layout.AddQuantumRegister(matches[1], n)
			c.NumQubits = layout.NumQubits
			continue
		}
		if matches := cregRegex.FindStringSubmatch(line); matches != nil {
			n, _ := strconv.Atoi(matches[2])
			cregs[matches[1]] = layout.AddClassicalRegister(matches[1], n)
			c.NumClbits = layout.NumClbits
			continue
		}

		if matches := measureRegex.FindStringSubmatch(line); matches != nil {
			q, err := resolveQubit(matches[1] + "[" + matches[2] + "]")
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNo+1)
			}
			reg, ok := cregs[matches[3]]
			if !ok {
				return nil, errors.Errorf("line %d: unknown creg %q", lineNo+1, matches[3])
			}
			idx, _ := strconv.Atoi(matches[4])
			bit := reg.Bit(idx)
			if bit < 0 {
				return nil, errors.Errorf("line %d: index %d out of range for creg %s", lineNo+1, idx, reg.Name)
			}
			c.Measure(q, bit)
			continue
		}

		matches := gateLineRegex.FindStringSubmatch(line)
		if matches == nil {
			return nil, errors.Errorf("line %d: cannot parse %q", lineNo+1, line)
		}
		name := strings.ToLower(matches[1])
		var operands []int
		for _, op := range strings.Split(matches[3], ",") {
			q, err := resolveQubit(op)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNo+1)
			}
			operands = append(operands, q)
		}
		var param float64
		if matches[2] != "" {
			p, ok := parseParamExpr(matches[2])
			if !ok {
				return nil, errors.Errorf("line %d: bad parameter %q", lineNo+1, matches[2])
			}
			param = p
		}

		want := map[string]int{"h": 1, "x": 1, "z": 1, "p": 1, "u1": 1, "cu1": 2, "cp": 2, "swap": 2, "cx": 2, "ccx": 3}
		if matches := mcxNameRegex.FindStringSubmatch(name); matches != nil {
			n, _ := strconv.Atoi(matches[1])
			if len(operands) != n+1 {
				return nil, errors.Errorf("line %d: %s takes %d operands, got %d", lineNo+1, name, n+1, len(operands))
			}
			name = "mcx"
		}
		if n, ok := want[name]; ok && len(operands) != n {
			return nil, errors.Errorf("line %d: %s takes %d operands, got %d", lineNo+1, name, n, len(operands))
		}

		switch name {
		case "h":
			c.H(operands[0])
		case "x":
			c.X(operands[0])
		case "z":
			c.Z(operands[0])
		case "p", "u1":
			c.P(param, operands[0])
		case "cu1", "cp":
			c.CP(param, operands[0], operands[1])
		case "swap":
			c.Swap(operands[0], operands[1])
		case "cx", "ccx", "mcx":
			if len(operands) < 2 {
				return nil, errors.Errorf("line %d: %s needs a control and a target", lineNo+1, name)
			}
			c.MCX(operands[:len(operands)-1], operands[len(operands)-1])
		case "barrier":
			c.Barrier(operands...)
		default:
			return nil, errors.Errorf("line %d: unsupported gate %q", lineNo+1, name)
		}
	}

	return c, nil
}
