package optimize

import (
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// State names the loop's position in its lifecycle.
type State string

const (
	StateInit      State = "init"
	StateRunning   State = "running"
	StateConverged State = "converged"
	StateExhausted State = "exhausted"
	StateKilled    State = "killed"
	StateStalled   State = "stalled"
	StateFailed    State = "failed"
)

// Terminal reports whether the state ends the run.
func (s State) Terminal() bool {
	switch s {
	case StateConverged, StateExhausted, StateKilled, StateStalled, StateFailed:
		return true
	}
	return false
}

// RunState is the coordinator's per-run bookkeeping, mutated once per round.
// The copy returned by Run is the final result.
type RunState struct {
	// RunID identifies the run across checkpoints and traces.
	RunID string `json:"runId"`

	// Round counts completed rounds, starting at 1 for the first.
	Round int `json:"round"`

	// EvaluationsDone is the cumulative number of objective evaluations;
	// it equals the sum of all completed rounds' batch sizes.
	EvaluationsDone int `json:"evaluationsDone"`

	// BestPoint is the incumbent in the engine's dimension order;
	// BestParams is the same point keyed by dimension name.
	BestPoint  space.Point    `json:"bestPoint,omitempty"`
	BestParams map[string]any `json:"bestParams,omitempty"`
	BestValue  float64        `json:"bestValue"`

	// Success is true once the best objective dropped below tolerance.
	Success bool `json:"success"`

	// State is the lifecycle position, terminal once Run returns.
	State State `json:"state"`
}
