package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// newTable returns a rounded table using the explorer's colours.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// stageCircuit builds the circuit for a named stage.
func stageCircuit(p *Problem, stage string) (*Circuit, error) {
	switch stage {
	case "adder":
		return p.Adder(), nil
	case "oracle":
		return p.Oracle(), nil
	case "solver":
		return p.Solver(p.IterationCount()), nil
	}
	return nil, errors.Errorf("unknown stage %q (want adder, oracle or solver)", stage)
}

func newQASMCmd(a *app) *cobra.Command {
	var stage, output string
	var expand bool
	cmd := &cobra.Command{
		Use:   "qasm",
		Short: "Print the OpenQASM 2.0 for a stage",
		Long: `Print the OpenQASM 2.0 text of the adder, oracle or solver circuit.
Multi-controlled X gates are written as mcx_N gate definitions, or
expanded inline into cx, ccx, cu1 and h with --expand-mcx.

Example:
  qsubsum qasm --values 1,2,3 --target 3 --stage solver -o solver.qasm
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.problem(cmd)
			if err != nil {
				return err
			}
			c, err := stageCircuit(p, stage)
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return errors.Wrap(err, "validate circuit")
			}
			if expand {
				c = c.ExpandMCX()
			}
			qasm := c.ToQASM()
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), qasm)
				return nil
			}
			if err := os.WriteFile(output, []byte(qasm), 0o644); err != nil {
				return errors.Wrap(err, "write qasm")
			}
			a.logger.Info().Str("stage", stage).Str("path", output).Int("gates", len(c.Decompose().Gates)).Msg("qasm written")
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "solver", "circuit to export: adder, oracle or solver")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&expand, "expand-mcx", false, "expand multi-controlled X gates into qelib1 gates")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var shots int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate the solver and sample measurement shots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.problem(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("shots") {
				shots = a.cfg.Shots
			}
			k := p.IterationCount()
			a.logger.Info().Int("iterations", k).Int("shots", shots).Msg("simulating solver")

			_, dist, err := RunSolver(p, k)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed))
			counts, err := Sample(rng, dist, len(p.Values), shots)
			if err != nil {
				return errors.Wrap(err, "sample shots")
			}

			marked := MarkedSubsets(p.Values, p.Target, p.Width())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "values %v, target %d, %d iterations, %d shots\n", p.Values, p.Target, k, shots)
			fmt.Fprintf(out, "success probability %.4f\n\n", SuccessProbability(dist, marked))

			keys := make([]string, 0, len(counts))
			for key := range counts {
				keys = append(keys, key)
			}
			slices.SortFunc(keys, func(x, y string) int {
				if counts[x] != counts[y] {
					return counts[y] - counts[x]
				}
				return strings.Compare(x, y)
			})
			t := newTable("outcome", "count", "subset", "marked")
			for _, key := range keys {
				mask := parseBits(key)
				hit := strconv.FormatBool(slices.Contains(marked, mask))
				if hit == "true" {
					hit = markedBarStyle.Render(hit)
				}
				t.Row(key, strconv.Itoa(counts[key]), FormatSubset(p.Values, mask), hit)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
	cmd.Flags().IntVar(&shots, "shots", 1024, "number of measurement shots (default from QSUBSUM_SHOTS)")
	return cmd
}

func newSweepCmd(a *app) *cobra.Command {
	var maxIterations int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Simulate the solver for a range of iteration counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.problem(cmd)
			if err != nil {
				return err
			}
			if maxIterations < -1 {
				return errors.Errorf("--max must be -1 or a non-negative count, got %d", maxIterations)
			}
			if maxIterations < 0 {
				maxIterations = 2*SuggestedIterations(len(p.Values), len(MarkedSubsets(p.Values, p.Target, p.Width()))) + 1
			}
			results, err := Sweep(context.Background(), p, maxIterations, a.cfg.Workers)
			if err != nil {
				return err
			}
			a.logger.Info().Int("max_iterations", maxIterations).Int("workers", a.cfg.Workers).Msg("sweep finished")

			t := newTable("k", "success", "hellinger", "most likely", "depth", "gates")
			for _, r := range results {
				t.Row(strconv.Itoa(r.Iterations),
					fmt.Sprintf("%.4f", r.Success),
					fmt.Sprintf("%.4f", r.Hellinger),
					formatBits(r.MostLikely, len(p.Values)),
					strconv.Itoa(r.Depth),
					strconv.Itoa(r.GateCount))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().IntVar(&maxIterations, "max", -1, "largest iteration count (-1 for twice the suggested count plus one)")
	return cmd
}

func newMarkedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "marked",
		Short: "List the subsets the oracle marks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.problem(cmd)
			if err != nil {
				return err
			}
			marked := MarkedSubsets(p.Values, p.Target, p.Width())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "values %v, target %d (mod %d)\n", p.Values, p.Target, 1<<p.Width())
			for _, mask := range marked {
				fmt.Fprintf(out, "  %s  %s\n", formatBits(mask, len(p.Values)), FormatSubset(p.Values, mask))
			}
			fmt.Fprintf(out, "%d of %d subsets marked, suggested iterations %d\n",
				len(marked), 1<<len(p.Values), SuggestedIterations(len(p.Values), len(marked)))
			return nil
		},
	}
}

// saveQASM writes a circuit under the configured output directory and
// returns the path.
func saveQASM(a *app, c *Circuit, stage string) (string, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	id := a.runID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s-%s.qasm", stage, id)
	path := filepath.Join(a.cfg.OutputDir, name)
	if err := os.WriteFile(path, []byte(c.ToQASM()), 0o644); err != nil {
		return "", errors.Wrap(err, "write qasm")
	}
	return path, nil
}

func parseBits(s string) int {
	v := 0
	for _, ch := range s {
		v <<= 1
		if ch == '1' {
			v |= 1
		}
	}
	return v
}
