package main

import (
	"math"
	"strings"
	"testing"
)

func TestParseNamedRegisters(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg idx[2];
qreg val[2];
qreg aux[1];
creg out[2];

h idx[1];
cu1(pi/2) idx[1], val[0];
ccx val[0], val[1], aux[0];
measure idx[1] -> out[1];`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}

	if c.NumQubits != 5 || c.NumClbits != 2 {
		t.Fatalf("expected 5 qubits and 2 bits, got %d and %d", c.NumQubits, c.NumClbits)
	}
	if len(c.Gates) != 4 {
		t.Fatalf("expected 4 gates, got %d", len(c.Gates))
	}

	if g := c.Gates[0]; g.Type != "H" || g.Target != 1 {
		t.Errorf("gate 0: expected H on qubit 1, got %s on %d", g.Type, g.Target)
	}
	if g := c.Gates[1]; g.Type != "CP" || g.Control != 1 || g.Target != 2 || math.Abs(g.Params[0]-math.Pi/2) > 1e-12 {
		t.Errorf("gate 1: expected CP(pi/2) 1→2, got %s %d→%d %v", g.Type, g.Control, g.Target, g.Params)
	}
	if g := c.Gates[2]; g.Type != "MCX" || len(g.Controls) != 2 || g.Controls[0] != 2 || g.Controls[1] != 3 || g.Target != 4 {
		t.Errorf("gate 2: expected MCX [2 3]→4, got %s %v→%d", g.Type, g.Controls, g.Target)
	}
	if g := c.Gates[3]; g.Type != "MEASURE" || g.Target != 1 || g.Cbit != 1 {
		t.Errorf("gate 3: expected measure 1→1, got %s %d→%d", g.Type, g.Target, g.Cbit)
	}
}

func TestParseDefaultRegisters(t *testing.T) {
	// Circuits without a layout export as flat q/c registers
	c := &Circuit{}
	c.H(0)
	c.MCX([]int{0}, 2)
	c.Measure(2, 0)

	qasm := c.ToQASM()
	if !strings.Contains(qasm, "qreg q[3];") || !strings.Contains(qasm, "creg c[1];") {
		t.Fatalf("expected flat registers, got:\n%s", qasm)
	}
	if !strings.Contains(qasm, "cx q[0], q[2];") {
		t.Errorf("single-control MCX should export as cx, got:\n%s", qasm)
	}

	back, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	if len(back.Gates) != 3 {
		t.Errorf("expected 3 gates after round trip, got %d", len(back.Gates))
	}
}

func TestParseSkipsGateDefinitions(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

gate mcu1_2(lambda) c0, c1, t
{
  cu1(lambda/2) c1, t;
  cx c0, c1;
}
gate mcx_3 c0, c1, c2, t { h t; mcu1_3(pi) c0, c1, c2, t; h t; }

qreg q[4];
mcx_3 q[0], q[1], q[2], q[3];
u1(pi/4) q[0];`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	if len(c.Gates) != 2 {
		t.Fatalf("expected 2 gates, got %d", len(c.Gates))
	}
	if g := c.Gates[0]; g.Type != "MCX" || !slicesEqual(g.Controls, []int{0, 1, 2}) || g.Target != 3 {
		t.Errorf("gate 0: expected MCX [0 1 2]→3, got %s %v→%d", g.Type, g.Controls, g.Target)
	}
	if g := c.Gates[1]; g.Type != "P" || math.Abs(g.Params[0]-math.Pi/4) > 1e-12 {
		t.Errorf("gate 1: expected P(pi/4), got %s %v", g.Type, g.Params)
	}
}

func TestRoundTripQASM(t *testing.T) {
	p := &Problem{Values: []int{1, 2, 3}, Target: 3}
	c := p.Solver(1)

	qasm := c.ToQASM()
	back, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}

	if again := back.ToQASM(); again != qasm {
		t.Errorf("QASM round trip mismatch:\n--- first ---\n%s\n--- second ---\n%s", qasm, again)
	}
	if back.GlobalPhase != math.Pi {
		t.Errorf("global phase: got %g, want pi", back.GlobalPhase)
	}
	if got, want := len(back.Gates), len(c.Decompose().Gates); got != want {
		t.Errorf("gate count: got %d, want %d", got, want)
	}
}

func TestParseQASMErrors(t *testing.T) {
	header := "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\ncreg c[1];\n"
	tests := map[string]string{
		"unknown register": "h r[0];",
		"index range":      "x q[2];",
		"unsupported gate": "rx(pi) q[0];",
		"operand count":    "cu1(pi) q[0];",
		"bad creg":         "measure q[0] -> d[0];",
		"garbage":          "this is not qasm",
		"mcx_3 operands":   "qreg r[3];\nmcx_3 q[0], q[1], r[0];",
	}

	for name, line := range tests {
		if _, err := ParseQASM(header + line); err == nil {
			t.Errorf("%s: expected error for %q", name, line)
		}
	}
}

func TestParseParamExpr(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		// Plain numbers
		{"1.5707", 1.5707, true},
		{"-0.5", -0.5, true},
		{"0", 0, true},
		{"1e-05", 1e-05, true},

		// Pi constant
		{"pi", math.Pi, true},
		{"PI", math.Pi, true},

		// Pi fractions
		{"pi/2", math.Pi / 2, true},
		{"pi/3", math.Pi / 3, true},
		{"pi/1024", math.Pi / 1024, true},

		// Coefficients
		{"2pi", 2 * math.Pi, true},
		{"3*pi/4", 3 * math.Pi / 4, true},
		{"5*pi/4", 5 * math.Pi / 4, true},

		// Negative
		{"-pi", -math.Pi, true},
		{"-3*pi/4", -3 * math.Pi / 4, true},

		// Whitespace
		{" pi / 2 ", math.Pi / 2, true},
		{" 3 * pi / 4 ", 3 * math.Pi / 4, true},

		// Invalid
		{"", 0, false},
		{"abc", 0, false},
		{"pi/0", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseParamExpr(tt.input)
		if ok != tt.ok {
			t.Errorf("parseParamExpr(%q): ok=%v, want ok=%v", tt.input, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-10 {
			t.Errorf("parseParamExpr(%q) = %g, want %g", tt.input, got, tt.want)
		}
	}
}

func TestFormatParam(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{3 * math.Pi / 4, "3*pi/4"},
		{5 * math.Pi / 4, "5*pi/4"},
		{math.Pi / 64, "pi/64"},
		{-math.Pi / 2, "-pi/2"},
		{2 * math.Pi, "2*pi"},
		{2 * math.Pi / 3, "2*pi/3"},
		{1.5, "1.5"},
		{0, "0"},
		{0.01, "0.01"},
		{math.Pi / (1 << 20), "pi/1048576"},
		{0.123456789, "0.123456789"},
		{1.0 / 3, "0.3333333333333333"},
	}

	for _, tt := range tests {
		got := formatParam(tt.input)
		if got != tt.want {
			t.Errorf("formatParam(%g) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPiParamQASMRoundTrip(t *testing.T) {
	c := &Circuit{}
	c.P(math.Pi/2, 0)
	c.CP(-3*math.Pi/4, 0, 1)
	c.CP(0.123456789, 1, 0)
	c.P(1.0/3, 1)

	back, err := ParseQASM(c.ToQASM())
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	if len(back.Gates) != len(c.Gates) {
		t.Fatalf("expected %d gates, got %d", len(c.Gates), len(back.Gates))
	}
	for i := range c.Gates {
		if math.Abs(back.Gates[i].Params[0]-c.Gates[i].Params[0]) > 1e-12 {
			t.Errorf("gate %d: param %g, want %g", i, back.Gates[i].Params[0], c.Gates[i].Params[0])
		}
	}
}

func TestParseIntList(t *testing.T) {
	tests := []struct {
		input string
		want  []int
		ok    bool
	}{
		{"1,2,3", []int{1, 2, 3}, true},
		{" 1, 2 ,3 ", []int{1, 2, 3}, true},
		{"[5 7 0]", []int{5, 7, 0}, true},
		{"", nil, false},
		{"1,-2", nil, false},
		{"1,x", nil, false},
	}

	for _, tt := range tests {
		got, err := parseIntList(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("parseIntList(%q): err=%v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && !slicesEqual(got, tt.want) {
			t.Errorf("parseIntList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func slicesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
