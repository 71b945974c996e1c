// Package config holds the run options shared by the CLI and the
// optimization loop, with defaults overlaid by an optional YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
)

// Options are the knobs supplied at the start of a run.
type Options struct {
	// NCalls is the evaluation budget: the loop stops once this many
	// objective evaluations have been issued.
	NCalls int `yaml:"n_calls"`

	// Tol declares the run successful once the best objective drops
	// strictly below it.
	Tol float64 `yaml:"tol"`

	// NCores is the batch width per round; 0 picks the number of
	// available CPUs minus one.
	NCores int `yaml:"n_cores"`

	// RandomState seeds the engine for reproducible runs.
	RandomState int64 `yaml:"random_state"`

	// NInitialPoints and InitialPointGenerator configure the engine's
	// initial sampling phase.
	NInitialPoints        int    `yaml:"n_initial_points"`
	InitialPointGenerator string `yaml:"initial_point_generator"`

	// ControlPath is the runtime control document location.
	ControlPath string `yaml:"control_path"`

	// DataDir is the base directory for checkpoints and traces;
	// empty disables checkpointing.
	DataDir string `yaml:"data_dir"`

	// PlotsDir receives the per-round diagnostic plots; empty disables
	// diagnostics.
	PlotsDir string `yaml:"plots_dir"`

	// StallPatience stops the run after this many rounds without a
	// relative improvement of at least StallThreshold; 0 disables it.
	StallPatience  int     `yaml:"stall_patience"`
	StallThreshold float64 `yaml:"stall_threshold"`
}

// Default returns the built-in defaults, matching the documented knobs.
func Default() Options {
	return Options{
		NCalls:                100,
		Tol:                   0.001,
		NCores:                0,
		RandomState:           1,
		NInitialPoints:        10,
		InitialPointGenerator: engine.GeneratorRandom,
		ControlPath:           "optimizer.yaml",
		StallThreshold:        0.001,
	}
}

// Load reads a YAML options file over the defaults. A missing file is an
// explicit error; callers that want silent defaults should not call Load.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks option consistency before a run starts.
func (o Options) Validate() error {
	if o.NCalls <= 0 {
		return fmt.Errorf("n_calls must be positive, got %d", o.NCalls)
	}
	if o.Tol <= 0 {
		return fmt.Errorf("tol must be positive, got %g", o.Tol)
	}
	if o.NCores < 0 {
		return fmt.Errorf("n_cores cannot be negative, got %d", o.NCores)
	}
	if o.NInitialPoints <= 0 {
		return fmt.Errorf("n_initial_points must be positive, got %d", o.NInitialPoints)
	}
	known := false
	for _, g := range engine.Generators() {
		if o.InitialPointGenerator == g {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown initial_point_generator %q", o.InitialPointGenerator)
	}
	if o.StallPatience < 0 {
		return fmt.Errorf("stall_patience cannot be negative, got %d", o.StallPatience)
	}
	return nil
}
