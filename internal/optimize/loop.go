// Package optimize drives the ask/tell optimization loop: it requests
// candidate batches from an engine, hands them to a caller-supplied
// evaluation routine, feeds the observed objectives back, checkpoints after
// every round, and honors runtime control requests between rounds.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/config"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/control"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/plots"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/store"
)

// EvalFunc is the caller-supplied evaluation routine. It receives one
// parameter table per round plus any operator-supplied extra parameters and
// returns one objective value per row, in row order, minimization-oriented.
// The routine owns all parallelism across the batch; the loop only requires
// that it does not mutate the table.
type EvalFunc func(ctx context.Context, table *space.Table, kwargs map[string]any) ([]float64, error)

// Diagnostics is the plotting collaborator boundary: the loop invokes it
// with round-scoped engine state and treats every failure as non-fatal.
type Diagnostics interface {
	ExportEvaluations(snap *engine.Snapshot) error
	ExportObjective(snap *engine.Snapshot) error
}

// LoopConfig wires a loop's collaborators. Store, Control, and Diagnostics
// are all optional; a nil value disables the corresponding concern.
type LoopConfig struct {
	// RunID identifies the run; empty generates a fresh one.
	RunID string

	Options config.Options

	Eval EvalFunc

	Store       store.Store
	Control     *control.Channel
	Diagnostics Diagnostics
}

// Loop is the batch coordinator. It exclusively owns the engine: no other
// component may call Ask or Tell while the loop runs. Rounds are strictly
// sequential; round k+1 never starts before round k's tell, checkpoint, and
// control refresh completed.
type Loop struct {
	eng     engine.Engine
	cfg     LoopConfig
	st      RunState
	stall   *StallTracker
	resumed bool
}

// NewLoop builds a fresh loop over the given engine.
func NewLoop(eng engine.Engine, cfg LoopConfig) (*Loop, error) {
	if eng == nil {
		return nil, &space.ConfigError{Op: "loop", Reason: "engine is nil"}
	}
	if cfg.Eval == nil {
		return nil, &space.ConfigError{Op: "loop", Reason: "evaluation routine is nil"}
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, &space.ConfigError{Op: "loop", Reason: err.Error()}
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Loop{
		eng: eng,
		cfg: cfg,
		st: RunState{
			RunID:     cfg.RunID,
			BestValue: math.Inf(1),
			State:     StateInit,
		},
		stall: NewStallTracker(StallConfig{
			Patience:  cfg.Options.StallPatience,
			Threshold: cfg.Options.StallThreshold,
		}),
	}, nil
}

// ResumeLoop restores a loop from a checkpoint. The checkpoint fully
// substitutes for fresh construction: engine history, round counter,
// evaluation count, and incumbent all come from the persisted state, and the
// checkpoint's dimension ordering takes precedence over any newly supplied
// registry.
func ResumeLoop(cp *store.Checkpoint, cfg LoopConfig) (*Loop, error) {
	if cp == nil {
		return nil, &space.ConfigError{Op: "resume", Reason: "nil checkpoint"}
	}
	if err := cp.Validate(); err != nil {
		return nil, &space.ConfigError{Op: "resume", Reason: err.Error()}
	}
	eng, err := engine.FromSnapshot(cp.Engine)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	if cfg.RunID == "" {
		cfg.RunID = cp.RunID
	}
	l, err := NewLoop(eng, cfg)
	if err != nil {
		return nil, err
	}
	l.resumed = true
	l.st.Round = cp.Round
	l.st.EvaluationsDone = cp.EvaluationsDone
	if cp.BestPoint != nil {
		l.st.BestPoint = append(space.Point(nil), cp.BestPoint...)
		l.st.BestValue = cp.BestValue
	}
	slog.Info("Resumed from checkpoint",
		"run_id", cfg.RunID,
		"round", cp.Round,
		"evaluations_done", cp.EvaluationsDone,
		"best_value", cp.BestValue,
	)
	return l, nil
}

// RunID returns the loop's run identifier.
func (l *Loop) RunID() string { return l.st.RunID }

// Engine exposes the engine handle, mainly for inspection after Run.
func (l *Loop) Engine() engine.Engine { return l.eng }

// Run executes rounds until the budget is exhausted, the tolerance is met,
// a kill is requested, or a fatal configuration error occurs. The returned
// RunState is the final state; it is also returned alongside a fatal error.
func (l *Loop) Run(ctx context.Context) (*RunState, error) {
	opts := l.cfg.Options
	l.st.State = StateRunning

	trace, err := l.openTrace()
	if err != nil {
		slog.Warn("Trace disabled", "error", err)
	}
	if trace != nil {
		defer trace.Close()
	}

	// Control state carries over between rounds; the document is only
	// re-read at round boundaries, so an operator edit mid-round takes
	// effect one round later at the latest.
	ctrl := control.Document{NCores: opts.NCores}
	var override []space.Point

	for l.st.EvaluationsDone < opts.NCalls {
		if ctx.Err() != nil {
			slog.Info("Context cancelled, stopping at round boundary", "run_id", l.st.RunID)
			l.st.State = StateKilled
			break
		}

		l.st.Round++
		slog.Info("Starting round",
			"run_id", l.st.RunID,
			"round", l.st.Round,
			"evaluations_done", l.st.EvaluationsDone,
			"n_calls", opts.NCalls,
		)

		// Propose: operator override wins over the engine for one round.
		var prop Proposal
		if ctrl.UserAsk && len(override) > 0 {
			slog.Info("Using operator-supplied batch", "round", l.st.Round, "points", len(override))
			prop = Overridden(override, ctrl.EvalFuncKwargs)
			override = nil
		} else {
			points, err := l.eng.Ask(l.batchWidth(ctrl.NCores))
			if err != nil {
				// A failing ask means the search space itself is unusable;
				// continuing would build tables from garbage.
				l.st.State = StateFailed
				return l.finish(), fmt.Errorf("ask failed in round %d: %w", l.st.Round, err)
			}
			prop = Sampled(points)
		}

		table, err := space.BuildTable(l.eng.Space(), prop.Points)
		if err != nil {
			slog.Warn("Skipping round: parameter table build failed",
				"round", l.st.Round, "error", err)
			continue
		}

		objectives, err := l.cfg.Eval(ctx, table, prop.Kwargs)
		if err == nil {
			err = checkObjectives(l.st.Round, len(prop.Points), objectives)
		}
		if err != nil {
			slog.Warn("Skipping round: evaluation failed",
				"round", l.st.Round, "error", err)
			continue
		}

		report, err := l.eng.Tell(prop.Points, objectives)
		if err != nil {
			// Tell rejecting a validated batch means the engine history
			// can no longer be trusted.
			l.st.State = StateFailed
			return l.finish(), fmt.Errorf("tell failed in round %d: %w", l.st.Round, err)
		}

		l.st.EvaluationsDone += len(prop.Points)
		l.st.BestPoint = report.Best
		l.st.BestValue = report.BestValue

		if trace != nil {
			entry := store.TraceEntry{
				Round:           l.st.Round,
				BatchSize:       len(prop.Points),
				Overridden:      prop.Overridden,
				BestValue:       report.BestValue,
				EvaluationsDone: l.st.EvaluationsDone,
				Timestamp:       time.Now(),
			}
			if err := trace.Write(entry); err == nil {
				trace.Flush()
			} else {
				slog.Warn("Trace write failed", "error", err)
			}
		}

		if report.BestValue < opts.Tol {
			l.st.Success = true
			l.st.State = StateConverged
			slog.Info("Converged below tolerance",
				"round", l.st.Round, "best_value", report.BestValue, "tol", opts.Tol)
			break
		}
		l.st.Success = false

		if l.stall.Update(report.BestValue) {
			l.st.State = StateStalled
			break
		}

		l.checkpoint()
		l.diagnostics()

		// Control refresh happens last so a kill request never discards
		// the round's results.
		if l.cfg.Control != nil {
			doc, err := l.cfg.Control.Poll(ctrl)
			if err != nil {
				var pe *control.ParseError
				if errors.As(err, &pe) {
					slog.Warn("Control document unreadable, keeping previous settings", "error", err)
				} else {
					slog.Warn("Control document rewrite failed", "error", err)
				}
			}
			ctrl = doc

			override = nil
			if ctrl.UserAsk {
				rows, err := control.ExpandRangeProduct(ctrl.UserRangeProd)
				if err != nil {
					slog.Warn("Invalid user range product, ignoring override", "error", err)
				} else {
					for _, row := range rows {
						override = append(override, space.Point(row))
					}
				}
			}
			if ctrl.Kill {
				slog.Warn("Killed by control document", "path", l.cfg.Control.Path())
				l.st.State = StateKilled
				break
			}
		}
	}

	if l.st.State == StateRunning {
		l.st.State = StateExhausted
		slog.Info("Evaluation budget exhausted",
			"evaluations_done", l.st.EvaluationsDone, "n_calls", opts.NCalls)
	}
	return l.finish(), nil
}

// batchWidth resolves the per-round batch width: the control document's
// n_cores when positive, otherwise available parallelism minus one.
func (l *Loop) batchWidth(nCores int) int {
	if nCores > 0 {
		return nCores
	}
	w := runtime.NumCPU() - 1
	if w < 1 {
		w = 1
	}
	return w
}

// checkObjectives enforces the evaluation routine's return contract.
func checkObjectives(round, want int, objectives []float64) error {
	if len(objectives) != want {
		return &ContractViolationError{
			Round:  round,
			Reason: fmt.Sprintf("got %d objectives for %d points", len(objectives), want),
		}
	}
	for i, y := range objectives {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return &ContractViolationError{
				Round:  round,
				Reason: fmt.Sprintf("objective %d is not finite", i),
			}
		}
	}
	return nil
}

// checkpoint persists the engine state after a non-terminal round. Failures
// are loud but never fatal: the run continues and loses at most this round.
func (l *Loop) checkpoint() {
	if l.cfg.Store == nil {
		return
	}
	snap, err := l.eng.Snapshot()
	if err != nil {
		slog.Warn("Engine snapshot failed, skipping checkpoint", "error", err)
		return
	}
	cp := store.NewCheckpoint(l.st.RunID, l.st.Round, l.st.EvaluationsDone, l.st.BestPoint, l.st.BestValue, snap)
	if err := l.cfg.Store.SaveCheckpoint(l.st.RunID, cp); err != nil {
		slog.Warn("Checkpoint save failed", "run_id", l.st.RunID, "error", err)
	}
}

// diagnostics asks the plotting collaborator for the round's two views.
// The objective view legitimately fails early in a run; that case is logged
// and skipped, everything else is a warning. Nothing here fails the round.
func (l *Loop) diagnostics() {
	if l.cfg.Diagnostics == nil || l.eng.Space().Len() <= 1 {
		return
	}
	snap, err := l.eng.Snapshot()
	if err != nil {
		slog.Warn("Engine snapshot failed, skipping diagnostics", "error", err)
		return
	}
	if err := l.cfg.Diagnostics.ExportEvaluations(snap); err != nil {
		slog.Warn("Evaluations plot failed", "round", l.st.Round, "error", err)
	}
	if err := l.cfg.Diagnostics.ExportObjective(snap); err != nil {
		if errors.Is(err, plots.ErrInsufficientData) {
			slog.Info("Not yet enough data for the objective plot", "round", l.st.Round)
		} else {
			slog.Warn("Objective plot failed", "round", l.st.Round, "error", err)
		}
	}
}

// finish freezes the run state and attaches named best parameters.
func (l *Loop) finish() *RunState {
	if l.st.BestPoint != nil {
		sp := l.eng.Space()
		params := make(map[string]any, sp.Len())
		for i, name := range sp.Names() {
			params[name] = sp.Value(i, l.st.BestPoint)
		}
		l.st.BestParams = params
	}
	slog.Info("Run finished",
		"run_id", l.st.RunID,
		"state", l.st.State,
		"rounds", l.st.Round,
		"evaluations_done", l.st.EvaluationsDone,
		"best_value", l.st.BestValue,
		"success", l.st.Success,
	)
	out := l.st
	return &out
}

// openTrace creates the per-run trace writer when a data dir is configured,
// appending when the run was resumed.
func (l *Loop) openTrace() (*store.TraceWriter, error) {
	if l.cfg.Options.DataDir == "" {
		return nil, nil
	}
	return store.NewTraceWriter(l.cfg.Options.DataDir, l.st.RunID, l.resumed)
}
