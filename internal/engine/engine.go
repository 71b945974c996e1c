// Package engine defines the ask/tell optimizer boundary and a built-in
// engine implementation. The batch coordinator treats an Engine as an opaque
// capability: it proposes candidate points, accepts observed objective
// values, and can snapshot its full internal state for exact resumption.
package engine

import (
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// Report summarizes the engine's cumulative observations after a Tell.
type Report struct {
	Best        space.Point
	BestValue   float64
	Evaluations int
}

// Engine is the ask/tell protocol. Implementations own their observation
// history and random state; only one caller may drive Ask/Tell at a time.
type Engine interface {
	// Space returns the search space in the engine's own dimension order.
	// Parameter tables must be aligned to this ordering, not to whatever
	// ordering the registry was originally supplied in.
	Space() *space.Space

	// Ask proposes n candidate points. A failure here signals a degenerate
	// or exhausted search space and is fatal to the run.
	Ask(n int) ([]space.Point, error)

	// Tell appends observed (point, objective) pairs to the cumulative
	// history and returns the updated best. Lengths must match.
	Tell(points []space.Point, objectives []float64) (Report, error)

	// Snapshot captures the complete resumable state.
	Snapshot() (*Snapshot, error)
}

// Snapshot is the full serializable engine state: observation history,
// sampling cursor, and RNG stream position. Restoring it via FromSnapshot
// substitutes exactly for fresh construction.
type Snapshot struct {
	Dimensions      []space.Dimension `json:"dimensions"`
	Seed            int64             `json:"seed"`
	Asks            uint64            `json:"asks"`
	Generator       string            `json:"generator"`
	GeneratorCursor int               `json:"generatorCursor"`
	NInitialPoints  int               `json:"nInitialPoints"`
	Xi              [][]float64       `json:"xi"`
	Yi              []float64         `json:"yi"`
}

// Names returns the dimension names in the snapshot's vector order.
func (s *Snapshot) Names() []string {
	names := make([]string, len(s.Dimensions))
	for i, d := range s.Dimensions {
		names[i] = d.Name
	}
	return names
}
