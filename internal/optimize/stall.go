package optimize

import (
	"log/slog"
	"math"
)

// StallConfig defines parameters for detecting a stalled optimization.
type StallConfig struct {
	// Patience is the number of rounds with no significant improvement
	// before stopping; 0 disables stall detection.
	Patience int

	// Threshold is the minimum relative improvement required to count as
	// progress. Example: 0.001 = 0.1% improvement required.
	Threshold float64
}

// StallTracker tracks the best-value history and detects when rounds stop
// making progress.
type StallTracker struct {
	config          StallConfig
	bestValue       float64
	lastSignificant float64
	staleCount      int
}

// NewStallTracker creates a tracker with the given config.
func NewStallTracker(config StallConfig) *StallTracker {
	return &StallTracker{
		config:          config,
		bestValue:       math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records a round's best value and returns true if the run stalled.
func (s *StallTracker) Update(value float64) bool {
	if s.config.Patience <= 0 {
		return false
	}

	if value < s.bestValue {
		s.bestValue = value
	}

	if math.IsInf(s.lastSignificant, 1) {
		s.lastSignificant = value
		return false
	}

	relativeImprovement := (s.lastSignificant - value) / math.Abs(s.lastSignificant)
	if relativeImprovement >= s.config.Threshold {
		s.lastSignificant = value
		s.staleCount = 0
		return false
	}

	s.staleCount++
	slog.Debug("No significant improvement",
		"value", value,
		"last_significant", s.lastSignificant,
		"stale_count", s.staleCount,
		"patience", s.config.Patience,
	)
	if s.staleCount >= s.config.Patience {
		slog.Info("Stall detected, stopping early",
			"stale_count", s.staleCount,
			"best_value", s.bestValue,
		)
		return true
	}
	return false
}

// StaleCount returns the current number of rounds without improvement.
func (s *StallTracker) StaleCount() int { return s.staleCount }
