package main

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ──────────────────────────── Step layout ────────────────────────────

// gateSpan returns the wire range a gate occupies on screen. Measurements
// reach down to the classical wire below the last qubit.
func gateSpan(g Gate, numQubits int) (lo, hi int) {
	qs := g.qubits()
	if len(qs) == 0 {
		return 0, numQubits - 1
	}
	lo, hi = slices.Min(qs), slices.Max(qs)
	if g.Type == "MEASURE" {
		hi = numQubits - 1
	}
	return lo, hi
}

// circuitGrid is a circuit packed into display columns. Gates are taken
// layer by layer from the circuit DAG, and each takes the first column
// where its whole wire span is free.
type circuitGrid struct {
	numQubits int
	numCbits  int
	layout    *Layout
	steps     [][]Gate
}

func newCircuitGrid(c *Circuit) *circuitGrid {
	cg := &circuitGrid{
		numQubits: c.NumQubits,
		numCbits:  c.NumClbits,
		layout:    c.layoutOrDefault(),
	}
	next := make([]int, c.NumQubits)
	for _, layer := range FromCircuit(c).Layers() {
		for _, node := range layer {
			g := node.Gate
			lo, hi := gateSpan(g, c.NumQubits)
			if lo < 0 || hi < lo || hi >= c.NumQubits {
				continue
			}
			step := slices.Max(next[lo : hi+1])
			for q := lo; q <= hi; q++ {
				next[q] = step + 1
			}
			for len(cg.steps) <= step {
				cg.steps = append(cg.steps, nil)
			}
			g.Step = step
			cg.steps[step] = append(cg.steps[step], g)
		}
	}
	return cg
}

// numSteps returns the number of display columns.
func (cg *circuitGrid) numSteps() int {
	return len(cg.steps)
}

func (cg *circuitGrid) gatesAt(step int) []Gate {
	if step < 0 || step >= len(cg.steps) {
		return nil
	}
	return cg.steps[step]
}

// cellInfo describes what occupies a single cell in the circuit grid.
type cellInfo struct {
	gate         *Gate
	isControl    bool
	isTarget     bool
	isBox        bool
	vertAbove    bool
	vertBelow    bool
	passThrough  bool
	measureBelow bool
	isBarrier    bool
}

func (cg *circuitGrid) getCellInfo(step, qubit int) cellInfo {
	var info cellInfo

	gates := cg.gatesAt(step)
	for i := range gates {
		g := &gates[i]
		switch {
		case g.Type == "BARRIER":
			if len(g.Qubits) == 0 || slices.Contains(g.Qubits, qubit) {
				info.isBarrier = true
				info.gate = g
			}
		case g.Type == "QFT":
			if slices.Contains(g.Qubits, qubit) {
				info.isBox = true
				info.gate = g
			}
		case g.Target == qubit:
			info.gate = g
			info.isTarget = g.Control >= 0 || len(g.Controls) > 0
		case g.Control == qubit || slices.Contains(g.Controls, qubit):
			info.gate = g
			info.isControl = true
		}

		// Vertical connections for multi-qubit gates and measurement wires
		if g.Type == "MEASURE" {
			if qubit > g.Target {
				info.measureBelow = true
			}
			continue
		}
		if g.Type == "BARRIER" || g.Type == "QFT" || (g.Control < 0 && len(g.Controls) == 0) {
			continue
		}
		lo, hi := gateSpan(*g, cg.numQubits)
		if qubit >= lo && qubit <= hi {
			if qubit > lo {
				info.vertAbove = true
			}
			if qubit < hi {
				info.vertBelow = true
			}
			if qubit > lo && qubit < hi && !g.gateReferences(qubit) {
				info.passThrough = true
			}
		}
	}

	return info
}

// measureAtStep returns the classical bit written at the given step, or -1.
func (cg *circuitGrid) measureAtStep(step int) int {
	for _, g := range cg.gatesAt(step) {
		if g.Type == "MEASURE" {
			return g.Cbit
		}
	}
	return -1
}

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// gateDisplayName returns a short display name for a gate.
func gateDisplayName(g *Gate) string {
	switch g.Type {
	case "MEASURE":
		return "M"
	case "QFT":
		if g.IsDagger {
			return "IQFT"
		}
		return "QFT"
	default:
		return g.Type
	}
}

// controlSymbol returns the wire symbol for a control qubit.
func controlSymbol(gateType string) string {
	if gateType == "SWAP" {
		return "×"
	}
	return "●"
}

// targetSymbol returns the wire symbol for the target qubit of a controlled gate.
func targetSymbol(gateType string) string {
	switch gateType {
	case "CP":
		return "●"
	case "SWAP":
		return "×"
	default:
		return "⊕"
	}
}

// describeGate returns a one-line description for the status bar.
func describeGate(g *Gate, layout *Layout) string {
	names := func(qs []int) string {
		parts := make([]string, len(qs))
		for i, q := range qs {
			parts[i] = layout.qubitName(q)
		}
		return strings.Join(parts, ",")
	}
	switch g.Type {
	case "CP":
		return fmt.Sprintf("CP(%s) %s → %s", formatParam(g.Params[0]), layout.qubitName(g.Control), layout.qubitName(g.Target))
	case "P":
		return fmt.Sprintf("P(%s) %s", formatParam(g.Params[0]), layout.qubitName(g.Target))
	case "SWAP":
		return fmt.Sprintf("SWAP %s ↔ %s", layout.qubitName(g.Control), layout.qubitName(g.Target))
	case "MCX":
		return fmt.Sprintf("MCX [%s] → %s", names(g.Controls), layout.qubitName(g.Target))
	case "MEASURE":
		return fmt.Sprintf("measure %s → %s", layout.qubitName(g.Target), layout.bitName(g.Cbit))
	case "QFT", "BARRIER":
		return fmt.Sprintf("%s [%s]", gateDisplayName(g), names(g.Qubits))
	default:
		return fmt.Sprintf("%s %s", g.Type, layout.qubitName(g.Target))
	}
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
)

// gateBox renders the three lines of a boxed gate label.
func gateBox(name string, style func(...string) string) (top, mid, bot string) {
	margin := (cellW - gateBoxW) / 2
	rightMargin := cellW - margin - gateBoxW
	top = strings.Repeat(" ", margin) + style("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
	mid = strings.Repeat("─", margin) + style("┤"+padCenter(name, gateNameW)+"├") + strings.Repeat("─", rightMargin)
	bot = strings.Repeat(" ", margin) + style("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
	return
}

// wire draws a w-wide wire segment with sym in the middle column.
func wire(sym string, w int) string {
	left := (w - 1) / 2
	return strings.Repeat("─", left) + sym + strings.Repeat("─", w-left-1)
}

// riser draws a cellW-wide blank row with sym in the middle column.
func riser(sym string) string {
	left := cellW / 2
	return strings.Repeat(" ", left) + sym + strings.Repeat(" ", cellW-left-1)
}

// renderCell returns the top, middle and bottom rows of one grid cell,
// each cellW characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	blank := strings.Repeat(" ", cellW)
	vert := riser("│")
	classical := riser(cbitConnectorStyle.Render("║"))

	if hl == hlCursor {
		return renderCursorCell(info, vert)
	}

	top, bot = blank, blank
	if info.vertAbove {
		top = vert
	}
	if info.vertBelow {
		bot = vert
	}

	switch {
	case info.isBarrier:
		return dimStyle.Render(vert), wire(dimStyle.Render("┊"), cellW), dimStyle.Render(vert)

	case info.isBox:
		return gateBox(gateDisplayName(info.gate), boxStyle.Render)

	case info.gate != nil && info.isTarget:
		mid = wire(gateStyle.Render(targetSymbol(info.gate.Type)), cellW)

	case info.gate != nil && info.isControl:
		mid = wire(gateStyle.Render(controlSymbol(info.gate.Type)), cellW)

	case info.gate != nil:
		top, mid, bot = gateBox(gateDisplayName(info.gate), gateStyle.Render)
		if info.gate.Type == "MEASURE" {
			bot = classical
		}

	case info.passThrough:
		mid = wire("┼", cellW)

	case info.measureBelow:
		// classical wire crossing an idle qubit
		if !info.vertAbove {
			top = classical
		}
		mid = wire(cbitConnectorStyle.Render("╫"), cellW)

	default:
		mid = strings.Repeat("─", cellW)
	}

	if info.measureBelow {
		bot = classical
	}
	return top, mid, bot
}

// renderCursorCell draws a cell inside the double-lined cursor frame.
func renderCursorCell(info cellInfo, vert string) (top, mid, bot string) {
	frame := cursorBoxStyle
	inner := cellW - 2
	side := frame.Render("║")

	if info.isBarrier {
		return vert, side + wire("│", inner) + side, vert
	}

	top = frame.Render("╔" + strings.Repeat("═", inner) + "╗")
	bot = frame.Render("╚" + strings.Repeat("═", inner) + "╝")
	switch {
	case info.gate != nil && info.isTarget:
		mid = wire(gateStyle.Render(targetSymbol(info.gate.Type)), inner)
	case info.gate != nil && info.isControl:
		mid = wire(gateStyle.Render(controlSymbol(info.gate.Type)), inner)
	case info.gate != nil:
		mid = "─┤" + gateStyle.Render(padCenter(gateDisplayName(info.gate), gateNameW)) + "├─"
	case info.passThrough:
		mid = wire("┼", inner)
	default:
		mid = strings.Repeat("─", inner)
	}
	return top, side + mid + side, bot
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	title := fmt.Sprintf("%s  ·  %d qubits  ·  depth %d", m.stage, m.circuit.NumQubits, m.depth)
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	availWidth := width - labelVisualW - 4
	displaySteps := max(availWidth/cellW, 1)
	startStep := 0
	if m.cursorStep >= displaySteps {
		startStep = m.cursorStep - displaySteps + 1
	}
	endStep := min(startStep+displaySteps, max(m.grid.numSteps(), 1))

	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing steps %d–%d of %d\n", startStep, endStep-1, m.grid.numSteps())
	}

	header := strings.Repeat(" ", labelVisualW)
	for step := startStep; step < endStep; step++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", step), cellW))
	}
	sb.WriteString(header + "\n")

	for qubit := range m.grid.numQubits {
		topLine := strings.Repeat(" ", labelVisualW)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-7s", m.grid.layout.qubitName(qubit))) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for step := startStep; step < endStep; step++ {
			hl := hlNone
			if step == m.cursorStep && qubit == m.cursorQubit && m.focus != focusQASM {
				hl = hlCursor
			}
			top, mid, bot := renderCell(m.grid.getCellInfo(step, qubit), hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	// ── Classical register wire (single line) ──
	if m.grid.numCbits > 0 {
		label := "c"
		if len(m.grid.layout.CRegs) > 0 {
			label = m.grid.layout.CRegs[0].Name
		}
		cbitLine := cbitLabelStyle.Render(fmt.Sprintf("%-7s", fmt.Sprintf("%s%d", label, m.grid.numCbits))) + cbitWireStyle.Render("══")
		for step := startStep; step < endStep; step++ {
			if cbit := m.grid.measureAtStep(step); cbit >= 0 {
				bitLabel := fmt.Sprintf("%d", cbit)
				dashL := (cellW - 1) / 2
				dashR := max(cellW-dashL-1-len(bitLabel), 0)
				cbitLine += cbitWireStyle.Render(strings.Repeat("═", dashL)) +
					cbitConnectorStyle.Render("╩"+bitLabel) +
					cbitWireStyle.Render(strings.Repeat("═", dashR))
			} else {
				cbitLine += cbitWireStyle.Render(strings.Repeat("═", cellW))
			}
		}
		sb.WriteString(cbitLine + "\n")
	}

	info := m.grid.getCellInfo(m.cursorStep, m.cursorQubit)
	fmt.Fprintf(&sb, "\n  Step %d, %s", m.cursorStep, m.grid.layout.qubitName(m.cursorQubit))
	if info.gate != nil {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(describeGate(info.gate, m.grid.layout)))
	}
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderSidePanel renders the problem summary, the outcome histogram and
// the QASM viewport.
func (m Model) renderSidePanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Problem"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "values %v  target %d  width %d\n", m.problem.Values, m.problem.Target, m.problem.Width())
	fmt.Fprintf(&sb, "iterations %d (suggested %d)  %s endian\n",
		m.iterations, SuggestedIterations(len(m.problem.Values), len(m.marked)), m.problem.Endianness())
	fmt.Fprintf(&sb, "marked %d/%d:", len(m.marked), 1<<len(m.problem.Values))
	for i, mask := range m.marked {
		if i == 4 {
			sb.WriteString(" …")
			break
		}
		sb.WriteString(" " + FormatSubset(m.problem.Values, mask))
	}
	sb.WriteString("\n\n")

	sb.WriteString(titleStyle.Render("Outcomes"))
	sb.WriteString("\n")
	if m.simErr != nil {
		sb.WriteString(errorStyle.Render(m.simErr.Error()))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.renderHistogram())
		if len(m.preview) > 0 {
			sb.WriteString("\n")
			sb.WriteString(titleStyle.Render(m.stage.String() + " on uniform input"))
			sb.WriteString("\n")
			for _, line := range m.preview {
				sb.WriteString(line + "\n")
			}
			if len(m.qubitProbs) > 0 {
				sb.WriteString(dimStyle.Render("P(1) per qubit, lsb first"))
				sb.WriteString("\n")
				for _, line := range m.qubitProbs {
					sb.WriteString(line + "\n")
				}
			}
		}
	}
	sb.WriteString("\n")

	title := "QASM"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(m.qasmView.View())

	return sideStyle.Width(width).Height(height).Render(sb.String())
}

// renderHistogram draws the most likely solver outcomes as bars, marked
// outcomes highlighted.
func (m Model) renderHistogram() string {
	order := make([]int, len(m.dist))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case m.dist[a] > m.dist[b]:
			return -1
		case m.dist[a] < m.dist[b]:
			return 1
		}
		return 0
	})

	var sb strings.Builder
	n := len(m.problem.Values)
	for _, outcome := range order[:min(histRows, len(order))] {
		p := m.dist[outcome]
		bar := strings.Repeat("█", int(math.Round(p*histBarW)))
		style := barStyle
		if slices.Contains(m.marked, outcome) {
			style = markedBarStyle
		}
		fmt.Fprintf(&sb, "%s %s %.3f\n", formatBits(outcome, n), style.Render(fmt.Sprintf("%-*s", histBarW, bar)), p)
	}
	return sb.String()
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	if m.focus == focusEditValues || m.focus == focusEditTarget {
		label := "Values: "
		if m.focus == focusEditTarget {
			label = "Target: "
		}
		sb.WriteString(activeGateStyle.Render(label))
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("⏎ Next  Esc Cancel"))
		return controlsStyle.Width(width).Height(height).Render(sb.String())
	}

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Qubit  ←→/hl Step  Tab QASM  m Menu")
	sb.WriteString("\n")
	sb.WriteString(activeGateStyle.Render("Problem:  "))
	sb.WriteString("+/- Iterations  e Endian  i Illustrate  n Edit  ^S Save  q Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// isEscEnd reports whether r terminates an ANSI escape sequence.
func isEscEnd(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// spliceLineAt replaces visible columns starting at position x in bgLine with overlay content.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder
	col, i := 0, 0

	// Collect prefix: everything up to visible column x
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				r := runes[i]
				prefix.WriteRune(r)
				i++
				if r != '\x1b' && r != '[' && isEscEnd(r) {
					break
				}
			}
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	// Skip over ovWidth visible columns in the background
	skipped := 0
	for i < len(runes) && skipped < ovWidth {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				r := runes[i]
				i++
				if r != '\x1b' && r != '[' && isEscEnd(r) {
					break
				}
			}
			continue
		}
		skipped++
		i++
	}

	for i < len(runes) {
		suffix.WriteRune(runes[i])
		i++
	}

	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isEscEnd(r) {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
