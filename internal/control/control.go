// Package control implements the runtime control channel: a small YAML
// document at a well-known path that an operator can edit to steer a running
// optimization without stopping the process. It is read and rewritten once
// per round; the one-shot fields (user_ask, kill) are reset on rewrite so a
// request fires for exactly one round.
package control

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Document mirrors the control file's fields.
type Document struct {
	// NCores overrides the batch width for subsequent rounds.
	NCores int `yaml:"n_cores"`

	// UserAsk, when true, makes the next round evaluate the expanded
	// UserRangeProd grid instead of asking the engine.
	UserAsk bool `yaml:"user_ask"`

	// UserRangeProd holds one integer range per dimension as
	// [start, stop, step]; the override batch is their Cartesian product.
	UserRangeProd [][]int `yaml:"user_range_prod"`

	// EvalFuncKwargs are extra parameters forwarded to the evaluation
	// routine on override rounds.
	EvalFuncKwargs map[string]any `yaml:"eval_func_kwargs"`

	// Kill stops the loop at the next round boundary.
	Kill bool `yaml:"kill"`
}

// ParseError reports a control file that exists but cannot be parsed. The
// round keeps its previous control state; this is never fatal.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "control document " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Channel reads and rewrites the control document at a fixed path.
type Channel struct {
	path string
}

// NewChannel returns a channel for the document at path.
func NewChannel(path string) *Channel {
	return &Channel{path: path}
}

// Path returns the control document location.
func (c *Channel) Path() string { return c.path }

// Poll reads the document, overlaying it onto prev so absent fields keep
// their previous values, then rewrites the file with user_ask and kill reset
// to false and all other fields preserved.
//
// An absent file is not an error: prev is returned unchanged and nothing is
// written. A present but corrupt file returns prev together with a
// *ParseError so the caller can warn and carry on.
func (c *Channel) Poll(prev Document) (Document, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return prev, nil
		}
		return prev, &ParseError{Path: c.path, Err: err}
	}

	doc := prev
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return prev, &ParseError{Path: c.path, Err: err}
	}

	if err := c.rewrite(doc); err != nil {
		// The read succeeded, so apply the document anyway; the caller
		// only loses the one-shot reset.
		return doc, fmt.Errorf("rewrite control document: %w", err)
	}
	return doc, nil
}

// rewrite persists the document with the transient flags cleared, using a
// temp-file-and-rename write so a concurrent reader never sees a torn file.
func (c *Channel) rewrite(doc Document) error {
	doc.UserAsk = false
	doc.Kill = false

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Write creates or replaces the control document. Used to seed a default
// document next to a new run.
func (c *Channel) Write(doc Document) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create control directory: %w", err)
		}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal control document: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write control document: %w", err)
	}
	return nil
}

// ExpandRangeProduct turns one [start, stop, step] integer range per
// dimension into the Cartesian product of those ranges, row-major with the
// leftmost dimension varying slowest. The order is deterministic so an
// operator-specified grid reproduces exactly. Step defaults to 1 when a
// range has only two elements. An empty input yields no points.
func ExpandRangeProduct(ranges [][]int) ([][]float64, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	expanded := make([][]int, len(ranges))
	for i, r := range ranges {
		var start, stop, step int
		switch len(r) {
		case 2:
			start, stop, step = r[0], r[1], 1
		case 3:
			start, stop, step = r[0], r[1], r[2]
		default:
			return nil, fmt.Errorf("range %d: want [start, stop] or [start, stop, step], got %d elements", i, len(r))
		}
		if step == 0 {
			return nil, fmt.Errorf("range %d: step cannot be zero", i)
		}
		var vals []int
		if step > 0 {
			for v := start; v < stop; v += step {
				vals = append(vals, v)
			}
		} else {
			for v := start; v > stop; v += step {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("range %d: empty range [%d, %d, %d]", i, start, stop, step)
		}
		expanded[i] = vals
	}

	total := 1
	for _, vals := range expanded {
		total *= len(vals)
	}
	points := make([][]float64, 0, total)
	current := make([]float64, len(expanded))
	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(expanded) {
			points = append(points, append([]float64(nil), current...))
			return
		}
		for _, v := range expanded[depth] {
			current[depth] = float64(v)
			walk(depth + 1)
		}
	}
	walk(0)
	return points, nil
}
