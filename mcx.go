package main

import (
	"fmt"
	"math"
	"strings"
)

// DecomposeMCX returns an X on target controlled by controls, built from
// H, CP, CX and CCX. It is exact, with no global phase. One and two
// controls are left as CX and CCX.
func DecomposeMCX(controls []int, target int) *Circuit {
	c := &Circuit{Name: "mcx"}
	appendMCX(c, controls, target)
	return c
}

// ExpandMCX returns a copy of c, with QFT boxes decomposed, where every MCX
// with three or more controls is replaced by DecomposeMCX.
func (c *Circuit) ExpandMCX() *Circuit {
	dc := c.Decompose()
	out := &Circuit{Name: c.Name, Layout: c.Layout, NumQubits: dc.NumQubits, NumClbits: dc.NumClbits, GlobalPhase: dc.GlobalPhase}
	for _, g := range dc.Gates {
		if g.Type == "MCX" && len(g.Controls) > 2 {
			appendMCX(out, g.Controls, g.Target)
			continue
		}
		out.AddGate(g.clone())
	}
	return out
}

func appendMCX(c *Circuit, controls []int, target int) {
	if len(controls) <= 2 {
		c.MCX(controls, target)
		return
	}
	c.H(target)
	appendMCPhase(c, math.Pi, controls, target)
	c.H(target)
}

// appendMCPhase peels off the last control: half the phase conditioned on
// it, the other half conditioned on the rest, with a parity correction.
func appendMCPhase(c *Circuit, theta float64, controls []int, target int) {
	if len(controls) == 1 {
		c.CP(theta, controls[0], target)
		return
	}
	last := controls[len(controls)-1]
	rest := controls[:len(controls)-1]
	c.CP(theta/2, last, target)
	appendMCX(c, rest, last)
	c.CP(-theta/2, last, target)
	appendMCX(c, rest, last)
	appendMCPhase(c, theta/2, rest, target)
}

func mcxGateName(n int) string {
	switch n {
	case 1:
		return "cx"
	case 2:
		return "ccx"
	}
	return fmt.Sprintf("mcx_%d", n)
}

func mcu1GateName(n int) string {
	if n == 1 {
		return "cu1"
	}
	return fmt.Sprintf("mcu1_%d", n)
}

// qasmGateDefs writes OpenQASM gate definitions for mcx_k, k = 3..maxControls,
// and the mcu1_k phase gates they are built from. Each body follows
// appendMCX and appendMCPhase using only qelib1 gates and earlier definitions.
func qasmGateDefs(maxControls int) string {
	if maxControls < 3 {
		return ""
	}
	args := func(names []string) string { return strings.Join(names, ", ") }

	var sb strings.Builder
	for n := 2; n <= maxControls; n++ {
		ctrl := make([]string, n)
		for i := range ctrl {
			ctrl[i] = fmt.Sprintf("c%d", i)
		}
		last := ctrl[n-1]
		rest := ctrl[:n-1]

		fmt.Fprintf(&sb, "gate %s(lambda) %s, t\n{\n", mcu1GateName(n), args(ctrl))
		fmt.Fprintf(&sb, "  cu1(lambda/2) %s, t;\n", last)
		fmt.Fprintf(&sb, "  %s %s, %s;\n", mcxGateName(n-1), args(rest), last)
		fmt.Fprintf(&sb, "  cu1(-lambda/2) %s, t;\n", last)
		fmt.Fprintf(&sb, "  %s %s, %s;\n", mcxGateName(n-1), args(rest), last)
		fmt.Fprintf(&sb, "  %s(lambda/2) %s, t;\n", mcu1GateName(n-1), args(rest))
		sb.WriteString("}\n")

		if n >= 3 {
			fmt.Fprintf(&sb, "gate %s %s, t\n{\n", mcxGateName(n), args(ctrl))
			sb.WriteString("  h t;\n")
			fmt.Fprintf(&sb, "  %s(pi) %s, t;\n", mcu1GateName(n), args(ctrl))
			sb.WriteString("  h t;\n")
			sb.WriteString("}\n")
		}
	}
	return sb.String()
}
