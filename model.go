package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
	focusEditValues
	focusEditTarget
)

// stage is the circuit currently on screen.
type stage int

const (
	stageAdder stage = iota
	stageOracle
	stageSolver
)

func (s stage) String() string {
	switch s {
	case stageAdder:
		return "adder"
	case stageOracle:
		return "oracle"
	default:
		return "solver"
	}
}

// previewStates caps the basis states listed for the adder and oracle.
const previewStates = 8

// Model represents the TUI application state.
type Model struct {
	app        *app
	problem    Problem
	stage      stage
	iterations int

	circuit *Circuit     // current stage
	grid    *circuitGrid // circuit packed into display columns
	depth   int
	dist    []float64 // solver outcome distribution
	marked  []int
	preview    []string // stage output on uniform index input
	qubitProbs []string // P(1) per qubit of that output, one line per register
	simErr  error

	cursorQubit int
	cursorStep  int
	width       int
	height      int
	qasmView    viewport.Model
	input       textinput.Model
	pending     []int // values typed before the target prompt
	focus       focus
	statusMsg   string // transient status message (e.g. save confirmation)

	// Menu state
	menuCat  int
	menuItem int
}

// NewModel creates the explorer for a validated problem, starting on the
// solver stage.
func NewModel(a *app, p *Problem) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 64

	m := Model{
		app:        a,
		problem:    *p,
		stage:      stageSolver,
		iterations: p.IterationCount(),
		qasmView:   viewport.New(40, 10),
		input:      ti,
		focus:      focusCircuit,
	}
	m.rebuild()
	return m
}

// runExplorer starts the interactive program.
func runExplorer(a *app, p *Problem) error {
	a.logger.Info().Ints("values", p.Values).Int("target", p.Target).Msg("starting explorer")
	if _, err := tea.NewProgram(NewModel(a, p), tea.WithAltScreen()).Run(); err != nil {
		return errors.Wrap(err, "run explorer")
	}
	return nil
}

// rebuild regenerates the current stage circuit and everything derived
// from it.
func (m *Model) rebuild() {
	switch m.stage {
	case stageAdder:
		m.circuit = m.problem.Adder()
	case stageOracle:
		m.circuit = m.problem.Oracle()
	default:
		m.circuit = m.problem.Solver(m.iterations)
	}
	m.grid = newCircuitGrid(m.circuit)
	m.depth = m.circuit.Depth()
	m.qasmView.SetContent(m.circuit.ToQASM())
	m.qasmView.GotoTop()
	m.marked = MarkedSubsets(m.problem.Values, m.problem.Target, m.problem.Width())
	m.cursorQubit = min(m.cursorQubit, max(m.grid.numQubits-1, 0))
	m.cursorStep = min(m.cursorStep, max(m.grid.numSteps()-1, 0))

	m.simErr = nil
	_, dist, err := RunSolver(&m.problem, m.iterations)
	if err != nil {
		m.simErr = err
		m.dist = nil
		m.app.logger.Error().Err(err).Msg("simulation failed")
		return
	}
	m.dist = dist

	m.preview, m.qubitProbs, err = m.stagePreview()
	if err != nil {
		m.simErr = err
		m.app.logger.Error().Err(err).Str("stage", m.stage.String()).Msg("preview failed")
		return
	}
	m.app.logger.Debug().
		Str("stage", m.stage.String()).
		Int("iterations", m.iterations).
		Int("gates", len(m.circuit.Gates)).
		Int("depth", m.depth).
		Float64("success", SuccessProbability(m.dist, m.marked)).
		Msg("stage rebuilt")
}

// stagePreview runs the adder or oracle on a uniform index register and
// lists the populated basis states by register, plus each register's
// per-qubit P(1).
func (m *Model) stagePreview() ([]string, []string, error) {
	if m.stage == stageSolver {
		return nil, nil, nil
	}
	regs := m.problem.Registers()
	prep := NewCircuit("prep", regs.Index, regs.Value, regs.Aux)
	for _, q := range regs.Index.Qubits {
		prep.H(q)
	}
	state, err := Simulate(prep.Compose(m.circuit))
	if err != nil {
		return nil, nil, errors.Wrap(err, "simulate stage")
	}

	var lines []string
	states := state.NonZeroStates(1e-9)
	for i, s := range states {
		if i == previewStates {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d more", len(states)-previewStates)))
			break
		}
		idx := registerValue(s.Index, regs.Index.Qubits)
		val := registerValue(s.Index, regs.Value.Qubits)
		sign := "+"
		if real(s.Amplitude) < 0 {
			sign = "−"
		}
		line := fmt.Sprintf("%s |idx=%s val=%d⟩  %d terms", sign, formatBits(idx, regs.Index.Len()), val, bitsCount(idx))
		if m.stage == stageOracle && sign == "−" {
			line = markedBarStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines, registerProbabilities(state, regs.Index, regs.Value, regs.Aux), nil
}

// registerProbabilities formats P(1) for every qubit, least significant
// first, one line per register.
func registerProbabilities(state *StateVector, regs ...QuantumRegister) []string {
	qp := state.GetQubitProbabilities()
	lines := make([]string, 0, len(regs))
	for _, reg := range regs {
		parts := make([]string, 0, reg.Len())
		for _, q := range reg.Qubits {
			parts = append(parts, fmt.Sprintf("%.2f", qp[q].Prob1))
		}
		lines = append(lines, fmt.Sprintf("%-4s%s", reg.Name, strings.Join(parts, " ")))
	}
	return lines
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qasmView.Width = max(msg.Width/3-4, 20)
		m.qasmView.Height = max(msg.Height-30, 4)

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			return m.updateCircuit(key)

		case focusQASM:
			switch key {
			case "tab", "esc":
				m.focus = focusCircuit
			default:
				var cmd tea.Cmd
				m.qasmView, cmd = m.qasmView.Update(msg)
				return m, cmd
			}

		case focusMenu:
			m.updateMenu(key)

		case focusEditValues, focusEditTarget:
			if key == "esc" || key == "enter" {
				m.updateInput(key)
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m Model) updateCircuit(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.focus = focusQASM
	case "m":
		m.focus = focusMenu
		m.menuCat = 0
		m.menuItem = int(m.stage)
	case "n":
		m.focus = focusEditValues
		m.input.SetValue(strings.Trim(strings.ReplaceAll(fmt.Sprint(m.problem.Values), " ", ","), "[]"))
		m.input.CursorEnd()
		m.input.Focus()
	case "up", "k":
		if m.cursorQubit > 0 {
			m.cursorQubit--
		}
	case "down", "j":
		if m.cursorQubit < m.grid.numQubits-1 {
			m.cursorQubit++
		}
	case "left", "h":
		if m.cursorStep > 0 {
			m.cursorStep--
		}
	case "right", "l":
		if m.cursorStep < m.grid.numSteps()-1 {
			m.cursorStep++
		}
	case "+", "=":
		m.iterations++
		m.rebuild()
	case "-":
		if m.iterations > 0 {
			m.iterations--
			m.rebuild()
		}
	case "e":
		if m.problem.Endianness() == LittleEndian {
			m.problem.Endian = BigEndian.String()
		} else {
			m.problem.Endian = LittleEndian.String()
		}
		m.rebuild()
		m.statusMsg = m.problem.Endianness().String() + " endian adder"
	case "i":
		m.problem.Illustrate = !m.problem.Illustrate
		m.rebuild()
	case "ctrl+s":
		path, err := saveQASM(m.app, m.circuit, m.stage.String())
		if err != nil {
			m.statusMsg = fmt.Sprintf("Save error: %v", err)
			m.app.logger.Error().Err(err).Msg("save qasm")
		} else {
			m.statusMsg = "Saved " + path
			m.app.logger.Info().Str("path", path).Msg("qasm saved")
		}
	}
	return m, nil
}

func (m *Model) updateMenu(key string) {
	items := stageMenu[m.menuCat].items
	switch key {
	case "esc", "q", "m":
		m.focus = focusCircuit
	case "up", "k":
		if m.menuItem > 0 {
			m.menuItem--
		}
	case "down", "j":
		if m.menuItem < len(items)-1 {
			m.menuItem++
		}
	case "left", "h":
		if m.menuCat > 0 {
			m.menuCat--
			m.menuItem = 0
		}
	case "right", "l":
		if m.menuCat < len(stageMenu)-1 {
			m.menuCat++
			m.menuItem = 0
		}
	case "enter":
		m.applyMenuItem(items[m.menuItem])
		m.focus = focusCircuit
	}
}

// updateInput handles enter and esc in the problem editor: values first,
// then the target.
func (m *Model) updateInput(key string) {
	if key == "esc" {
		m.input.Blur()
		m.pending = nil
		m.focus = focusCircuit
		return
	}

	if m.focus == focusEditValues {
		values, err := parseIntList(m.input.Value())
		if err != nil {
			m.statusMsg = err.Error()
			return
		}
		m.pending = values
		m.focus = focusEditTarget
		m.input.SetValue(strconv.Itoa(m.problem.Target))
		m.input.CursorEnd()
		return
	}

	target, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
	if err != nil {
		m.statusMsg = "target must be an integer"
		return
	}
	next := m.problem
	next.Values = m.pending
	next.Target = target
	next.Iterations = nil
	if err := next.Validate(); err != nil {
		m.statusMsg = err.Error()
		return
	}

	m.problem = next
	m.iterations = next.IterationCount()
	m.pending = nil
	m.input.Blur()
	m.focus = focusCircuit
	m.cursorStep, m.cursorQubit = 0, 0
	m.rebuild()
	m.app.logger.Info().Ints("values", next.Values).Int("target", target).Msg("problem updated")
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sideWidth := m.width / 3
	circuitWidth := m.width - sideWidth - 4
	controlsHeight := 4
	circuitHeight := max(m.height-controlsHeight-4, 6)

	circuitPanel := m.renderCircuitPanel(circuitWidth, circuitHeight)
	sidePanel := m.renderSidePanel(sideWidth, circuitHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, sidePanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	if m.focus == focusMenu {
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	}

	return frame
}
