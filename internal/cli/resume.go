package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/optimize"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/store"
)

var checkpointFile string

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume an optimization run from its checkpoint",
	Long: `Restores the engine state persisted after the last completed round
and continues the run from there. The checkpoint carries the search space,
the full observation history, and the random state, so the continuation
matches an uninterrupted run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&checkpointFile, "checkpoint", "", "Explicit checkpoint file (instead of run-id lookup)")
	resumeCmd.Flags().StringVar(&configPath, "config", "", "Optional YAML options file")
	resumeCmd.Flags().StringVar(&objective, "objective", "sphere", "Benchmark objective: sphere, rosenbrock, rastrigin")
	resumeCmd.Flags().IntVar(&nCalls, "n-calls", 0, "Evaluation budget")
	resumeCmd.Flags().Float64Var(&tol, "tol", 0, "Convergence tolerance")
	resumeCmd.Flags().IntVar(&nCores, "cores", 0, "Batch width (0 = available parallelism minus one)")
	resumeCmd.Flags().StringVar(&controlPath, "control", "", "Runtime control document path")
	resumeCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Checkpoint and trace directory")
	resumeCmd.Flags().StringVar(&plotsDir, "plots-dir", "", "Diagnostic plots directory (empty disables)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	var cp *store.Checkpoint
	switch {
	case checkpointFile != "":
		cp, err = store.LoadCheckpointFile(checkpointFile)
	case len(args) == 1:
		var st *store.FSStore
		st, err = store.NewFSStore(opts.DataDir)
		if err != nil {
			return err
		}
		cp, err = st.LoadCheckpoint(args[0])
	default:
		return fmt.Errorf("need a run-id argument or --checkpoint")
	}
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("no checkpoint to resume from: %w", err)
		}
		return err
	}

	loopCfg, err := buildLoopConfig(opts, cp.RunID)
	if err != nil {
		return err
	}
	loop, err := optimize.ResumeLoop(cp, loopCfg)
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
