package store

import (
	"fmt"
	"time"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
)

// Checkpoint is a durable snapshot of a running optimization written after
// every non-terminal round. Unlike a best-parameters dump, it carries the
// engine's complete internal state (observation history, sampling cursor,
// RNG position), so loading it substitutes fully for fresh construction and
// a resumed run continues exactly where the interrupted one stopped. A crash
// between rounds therefore loses at most one round of work.
type Checkpoint struct {
	// RunID is the unique identifier for this optimization run.
	RunID string `json:"runId"`

	// Round is the number of completed rounds at checkpoint time.
	Round int `json:"round"`

	// EvaluationsDone is the cumulative number of objective evaluations.
	EvaluationsDone int `json:"evaluationsDone"`

	// BestPoint and BestValue track the incumbent, in the engine's own
	// dimension order.
	BestPoint []float64 `json:"bestPoint,omitempty"`
	BestValue float64   `json:"bestValue"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Engine is the full resumable engine state.
	Engine *engine.Snapshot `json:"engine"`
}

// CheckpointInfo contains metadata about a checkpoint without the full
// observation history. Used for listing checkpoints efficiently.
type CheckpointInfo struct {
	RunID           string    `json:"runId"`
	Round           int       `json:"round"`
	EvaluationsDone int       `json:"evaluationsDone"`
	BestValue       float64   `json:"bestValue"`
	Dimensions      int       `json:"dimensions"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewCheckpoint assembles a checkpoint from the current run state and engine
// snapshot.
func NewCheckpoint(runID string, round, evaluationsDone int, bestPoint []float64, bestValue float64, snap *engine.Snapshot) *Checkpoint {
	return &Checkpoint{
		RunID:           runID,
		Round:           round,
		EvaluationsDone: evaluationsDone,
		BestPoint:       append([]float64(nil), bestPoint...),
		BestValue:       bestValue,
		Timestamp:       time.Now(),
		Engine:          snap,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	info := CheckpointInfo{
		RunID:           c.RunID,
		Round:           c.Round,
		EvaluationsDone: c.EvaluationsDone,
		BestValue:       c.BestValue,
		Timestamp:       c.Timestamp,
	}
	if c.Engine != nil {
		info.Dimensions = len(c.Engine.Dimensions)
	}
	return info
}

// Validate checks that the checkpoint is structurally sound before a resume.
// Every field a resumed run depends on must be present; no field may be left
// to default silently.
func (c *Checkpoint) Validate() error {
	if c.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if c.Round < 0 {
		return &ValidationError{Field: "Round", Reason: "cannot be negative"}
	}
	if c.EvaluationsDone < 0 {
		return &ValidationError{Field: "EvaluationsDone", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Engine == nil {
		return &ValidationError{Field: "Engine", Reason: "cannot be nil"}
	}
	if len(c.Engine.Dimensions) == 0 {
		return &ValidationError{Field: "Engine.Dimensions", Reason: "cannot be empty"}
	}
	if len(c.Engine.Xi) != len(c.Engine.Yi) {
		return &ValidationError{
			Field:  "Engine",
			Reason: fmt.Sprintf("history mismatch: %d points, %d objectives", len(c.Engine.Xi), len(c.Engine.Yi)),
		}
	}
	for i, p := range c.Engine.Xi {
		if len(p) != len(c.Engine.Dimensions) {
			return &ValidationError{
				Field:  "Engine.Xi",
				Reason: fmt.Sprintf("point %d has %d values for %d dimensions", i, len(p), len(c.Engine.Dimensions)),
			}
		}
	}
	if c.BestPoint != nil && len(c.BestPoint) != len(c.Engine.Dimensions) {
		return &ValidationError{Field: "BestPoint", Reason: "length does not match dimension count"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
