package main

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state shared by every command.
type app struct {
	cfg     *Config
	logger  zerolog.Logger
	runID   string
	logFile io.Closer

	problemFile string
	values      string
	target      int
	iterations  int
	bigEndian   bool
	illustrate  bool
}

func main() {
	a := &app{logger: NewLogger(LoggerConfig{Level: "info", Pretty: true}, os.Stderr)}
	if err := newRootCmd(a).Execute(); err != nil {
		a.logger.Error().Err(err).Str("run_id", a.runID).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qsubsum",
		Short: "Grover search for subset-sum solutions",
		Long: `qsubsum builds Fourier-adder, phase-oracle and Grover search circuits
for the subset-sum problem and simulates them on a statevector.

Without a subcommand it opens an interactive circuit explorer.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Name() == "qsubsum")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.problem(cmd)
			if err != nil {
				return err
			}
			return runExplorer(a, p)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.problemFile, "problem", "", "YAML problem file")
	flags.StringVar(&a.values, "values", "1,2,3", "comma separated value array")
	flags.IntVar(&a.target, "target", 3, "target sum")
	flags.IntVar(&a.iterations, "iterations", -1, "Grover iterations (-1 for the suggested count)")
	flags.BoolVar(&a.bigEndian, "big-endian", false, "use the swap-free Fourier transform in the adder")
	flags.BoolVar(&a.illustrate, "illustrate", false, "keep QFT boxes and barriers in the adder")

	rootCmd.AddCommand(newQASMCmd(a), newRunCmd(a), newSweepCmd(a), newMarkedCmd(a))
	return rootCmd
}

// setup loads configuration and points the logger at a file when the
// TUI owns the terminal.
func (a *app) setup(interactive bool) error {
	cfg, err := LoadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	a.cfg = cfg
	a.runID = uuid.NewString()

	var out io.Writer = os.Stderr
	if interactive {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		a.logFile = f
		out = f
	}

	a.logger = NewLogger(LoggerConfig{Level: cfg.LogLevel, Pretty: cfg.LogPretty, NoColor: interactive}, out).
		With().
		Str("run_id", a.runID).
		Logger()
	SetGlobalLogger(a.logger)
	return nil
}

// problem resolves the problem file and flag overrides.
func (a *app) problem(cmd *cobra.Command) (*Problem, error) {
	p := &Problem{}
	if a.problemFile != "" {
		loaded, err := LoadProblem(a.problemFile)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	flags := cmd.Flags()
	if a.problemFile == "" || flags.Changed("values") {
		values, err := ParseValues(a.values)
		if err != nil {
			return nil, errors.Wrap(err, "parse --values")
		}
		p.Values = values
	}
	if a.problemFile == "" || flags.Changed("target") {
		p.Target = a.target
	}
	if flags.Changed("iterations") {
		switch {
		case a.iterations < -1:
			return nil, errors.Errorf("--iterations must be -1 or a non-negative count, got %d", a.iterations)
		case a.iterations >= 0:
			k := a.iterations
			p.Iterations = &k
		}
	}
	if flags.Changed("big-endian") {
		p.Endian = LittleEndian.String()
		if a.bigEndian {
			p.Endian = BigEndian.String()
		}
	}
	if flags.Changed("illustrate") {
		p.Illustrate = a.illustrate
	}

	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid problem")
	}
	a.logger.Debug().
		Ints("values", p.Values).
		Int("target", p.Target).
		Int("qubits", p.NumQubits()).
		Msg("problem resolved")
	return p, nil
}
