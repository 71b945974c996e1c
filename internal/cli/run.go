package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/config"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/control"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/optimize"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/plots"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/store"
)

var (
	configPath string
	paramSpecs []string
	objective  string
	runID      string

	nCalls     int
	tol        float64
	nCores     int
	seed       int64
	initPoints int
	generator  string

	controlPath string
	dataDir     string
	plotsDir    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a fresh optimization run",
	Long: `Runs the optimization loop over the given parameter space against a
built-in benchmark objective, checkpointing after every round.

Parameter specs take one of three forms:
  name:low:high        continuous, e.g. x:-5.0:5.0
  name:int:low:high    integer,    e.g. layers:int:1:8
  name:cat:a,b,c       categorical`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML options file")
	runCmd.Flags().StringArrayVar(&paramSpecs, "param", nil, "Parameter dimension spec (repeatable, required)")
	runCmd.Flags().StringVar(&objective, "objective", "sphere", "Benchmark objective: sphere, rosenbrock, rastrigin")
	runCmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (default: random UUID)")

	runCmd.Flags().IntVar(&nCalls, "n-calls", 0, "Evaluation budget")
	runCmd.Flags().Float64Var(&tol, "tol", 0, "Convergence tolerance")
	runCmd.Flags().IntVar(&nCores, "cores", 0, "Batch width (0 = available parallelism minus one)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random state for reproducible runs")
	runCmd.Flags().IntVar(&initPoints, "init-points", 0, "Initial points before the surrogate takes over")
	runCmd.Flags().StringVar(&generator, "init-generator", "", "Initial point generator: "+strings.Join(engine.Generators(), ", "))

	runCmd.Flags().StringVar(&controlPath, "control", "", "Runtime control document path")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Checkpoint and trace directory (empty disables)")
	runCmd.Flags().StringVar(&plotsDir, "plots-dir", "", "Diagnostic plots directory (empty disables)")

	runCmd.MarkFlagRequired("param")
	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	dims := make([]space.Dimension, 0, len(paramSpecs))
	for _, spec := range paramSpecs {
		d, err := parseDimension(spec)
		if err != nil {
			return err
		}
		dims = append(dims, d)
	}
	sp, err := space.New(dims...)
	if err != nil {
		return err
	}

	eng, err := engine.New(sp, engine.Config{
		Seed:           opts.RandomState,
		NInitialPoints: opts.NInitialPoints,
		Generator:      opts.InitialPointGenerator,
	})
	if err != nil {
		return err
	}

	loopCfg, err := buildLoopConfig(opts, runID)
	if err != nil {
		return err
	}
	loop, err := optimize.NewLoop(eng, loopCfg)
	if err != nil {
		return err
	}

	state, err := loop.Run(cmd.Context())
	if err != nil {
		return err
	}
	printRunState(state)
	return nil
}

// resolveOptions layers defaults, the optional config file, and any flags
// the user set explicitly, in that order.
func resolveOptions(cmd *cobra.Command) (config.Options, error) {
	opts := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("n-calls") {
		opts.NCalls = nCalls
	}
	if flags.Changed("tol") {
		opts.Tol = tol
	}
	if flags.Changed("cores") {
		opts.NCores = nCores
	}
	if flags.Changed("seed") {
		opts.RandomState = seed
	}
	if flags.Changed("init-points") {
		opts.NInitialPoints = initPoints
	}
	if flags.Changed("init-generator") {
		opts.InitialPointGenerator = generator
	}
	if flags.Changed("control") {
		opts.ControlPath = controlPath
	}
	if flags.Changed("data-dir") {
		opts.DataDir = dataDir
	} else if opts.DataDir == "" {
		opts.DataDir = dataDir
	}
	if flags.Changed("plots-dir") {
		opts.PlotsDir = plotsDir
	}
	return opts, opts.Validate()
}

// buildLoopConfig wires the optional collaborators from the options.
func buildLoopConfig(opts config.Options, runID string) (optimize.LoopConfig, error) {
	eval, err := benchmarkEval(objective)
	if err != nil {
		return optimize.LoopConfig{}, err
	}
	cfg := optimize.LoopConfig{
		RunID:   runID,
		Options: opts,
		Eval:    eval,
	}
	if opts.DataDir != "" {
		st, err := store.NewFSStore(opts.DataDir)
		if err != nil {
			return cfg, err
		}
		cfg.Store = st
	}
	if opts.ControlPath != "" {
		cfg.Control = control.NewChannel(opts.ControlPath)
	}
	if opts.PlotsDir != "" {
		exp, err := plots.NewExporter(opts.PlotsDir)
		if err != nil {
			return cfg, err
		}
		cfg.Diagnostics = exp
	}
	return cfg, nil
}

func parseDimension(spec string) (space.Dimension, error) {
	parts := strings.Split(spec, ":")
	switch {
	case len(parts) == 3 && parts[1] == "cat":
		cats := strings.Split(parts[2], ",")
		return space.Categorical(parts[0], cats...), nil
	case len(parts) == 3:
		low, err1 := strconv.ParseFloat(parts[1], 64)
		high, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil {
			return space.Dimension{}, fmt.Errorf("invalid continuous spec %q", spec)
		}
		return space.Continuous(parts[0], low, high), nil
	case len(parts) == 4 && parts[1] == "int":
		low, err1 := strconv.Atoi(parts[2])
		high, err2 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil {
			return space.Dimension{}, fmt.Errorf("invalid integer spec %q", spec)
		}
		return space.Integer(parts[0], low, high), nil
	}
	return space.Dimension{}, fmt.Errorf("invalid parameter spec %q", spec)
}

func printRunState(state *optimize.RunState) {
	fmt.Printf("Run %s finished: %s after %d rounds, %d evaluations\n",
		state.RunID, state.State, state.Round, state.EvaluationsDone)
	fmt.Printf("Best value: %g (success=%v)\n", state.BestValue, state.Success)
	for name, value := range state.BestParams {
		fmt.Printf("  %s = %v\n", name, value)
	}
}
