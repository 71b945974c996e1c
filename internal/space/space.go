// Package space defines the search space an optimization runs over: named
// dimensions with numeric or categorical bounds, ordered so that every point
// proposed by an engine maps back to named parameters.
package space

import (
	"fmt"
	"math"
)

// Kind identifies the value type of a dimension.
type Kind int

const (
	KindContinuous Kind = iota
	KindInteger
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindInteger:
		return "integer"
	case KindCategorical:
		return "categorical"
	}
	return "unknown"
}

// Dimension is a single named search-space axis. Immutable once a Space is
// built around it.
type Dimension struct {
	Name       string   `json:"name"`
	Kind       Kind     `json:"kind"`
	Low        float64  `json:"low,omitempty"`
	High       float64  `json:"high,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Continuous returns a real-valued dimension with inclusive bounds.
func Continuous(name string, low, high float64) Dimension {
	return Dimension{Name: name, Kind: KindContinuous, Low: low, High: high}
}

// Integer returns an integer-valued dimension with inclusive bounds.
func Integer(name string, low, high int) Dimension {
	return Dimension{Name: name, Kind: KindInteger, Low: float64(low), High: float64(high)}
}

// Categorical returns a dimension over an ordered set of labels.
func Categorical(name string, categories ...string) Dimension {
	return Dimension{Name: name, Kind: KindCategorical, Categories: categories}
}

func (d Dimension) validate() error {
	if d.Name == "" {
		return &ConfigError{Op: "dimension", Reason: "name cannot be empty"}
	}
	switch d.Kind {
	case KindContinuous:
		if !(d.Low < d.High) {
			return &ConfigError{Op: "dimension " + d.Name, Reason: fmt.Sprintf("bounds must satisfy low < high, got (%g, %g)", d.Low, d.High)}
		}
	case KindInteger:
		if d.Low != math.Trunc(d.Low) || d.High != math.Trunc(d.High) {
			return &ConfigError{Op: "dimension " + d.Name, Reason: "integer bounds must be whole numbers"}
		}
		if !(d.Low < d.High) {
			return &ConfigError{Op: "dimension " + d.Name, Reason: fmt.Sprintf("bounds must satisfy low < high, got (%g, %g)", d.Low, d.High)}
		}
	case KindCategorical:
		if len(d.Categories) == 0 {
			return &ConfigError{Op: "dimension " + d.Name, Reason: "categorical dimension needs at least one category"}
		}
		seen := make(map[string]struct{}, len(d.Categories))
		for _, c := range d.Categories {
			if _, dup := seen[c]; dup {
				return &ConfigError{Op: "dimension " + d.Name, Reason: "duplicate category " + c}
			}
			seen[c] = struct{}{}
		}
	default:
		return &ConfigError{Op: "dimension " + d.Name, Reason: "unknown kind"}
	}
	return nil
}

// Point is one candidate parameter vector in raw value space: continuous
// values as-is, integer values as whole floats, categorical values as the
// index into the dimension's category list.
type Point []float64

// Space is an immutable ordered sequence of dimensions. The order defines the
// vector layout every engine point uses; it must stay fixed for a whole run.
type Space struct {
	dims  []Dimension
	index map[string]int
}

// New validates the dimensions and builds a Space preserving their order.
func New(dims ...Dimension) (*Space, error) {
	if len(dims) == 0 {
		return nil, &ConfigError{Op: "space", Reason: "at least one dimension is required"}
	}
	index := make(map[string]int, len(dims))
	for i, d := range dims {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := index[d.Name]; dup {
			return nil, &ConfigError{Op: "space", Reason: "duplicate dimension name " + d.Name}
		}
		index[d.Name] = i
	}
	owned := make([]Dimension, len(dims))
	copy(owned, dims)
	return &Space{dims: owned, index: index}, nil
}

// Len returns the number of dimensions.
func (s *Space) Len() int { return len(s.dims) }

// Dimensions returns a copy of the ordered dimension sequence.
func (s *Space) Dimensions() []Dimension {
	out := make([]Dimension, len(s.dims))
	copy(out, s.dims)
	return out
}

// Dimension returns the dimension at position i.
func (s *Space) Dimension(i int) Dimension { return s.dims[i] }

// Names returns dimension names in vector order.
func (s *Space) Names() []string {
	names := make([]string, len(s.dims))
	for i, d := range s.dims {
		names[i] = d.Name
	}
	return names
}

// Index returns the vector position of the named dimension.
func (s *Space) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// FromUnit maps a point on the unit cube into raw value space.
func (s *Space) FromUnit(u []float64) Point {
	p := make(Point, len(s.dims))
	for i, d := range s.dims {
		x := clamp01(u[i])
		switch d.Kind {
		case KindContinuous:
			p[i] = d.Low + x*(d.High-d.Low)
		case KindInteger:
			p[i] = math.Round(d.Low + x*(d.High-d.Low))
		case KindCategorical:
			idx := int(x * float64(len(d.Categories)))
			if idx >= len(d.Categories) {
				idx = len(d.Categories) - 1
			}
			p[i] = float64(idx)
		}
	}
	return p
}

// ToUnit maps a raw point onto the unit cube. The point must be valid.
func (s *Space) ToUnit(p Point) ([]float64, error) {
	if err := s.Check(p); err != nil {
		return nil, err
	}
	u := make([]float64, len(s.dims))
	for i, d := range s.dims {
		switch d.Kind {
		case KindContinuous, KindInteger:
			u[i] = (p[i] - d.Low) / (d.High - d.Low)
		case KindCategorical:
			if len(d.Categories) == 1 {
				u[i] = 0
			} else {
				// Bin center, so FromUnit maps it back to the same index.
				u[i] = (p[i] + 0.5) / float64(len(d.Categories))
			}
		}
	}
	return u, nil
}

// Check verifies that p has one value per dimension and every value lies
// within its dimension's bounds.
func (s *Space) Check(p Point) error {
	if len(p) != len(s.dims) {
		return fmt.Errorf("point has %d values, space has %d dimensions", len(p), len(s.dims))
	}
	for i, d := range s.dims {
		v := p[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("dimension %s: value is not finite", d.Name)
		}
		switch d.Kind {
		case KindContinuous:
			if v < d.Low || v > d.High {
				return fmt.Errorf("dimension %s: value %g outside bounds (%g, %g)", d.Name, v, d.Low, d.High)
			}
		case KindInteger:
			if v != math.Trunc(v) {
				return fmt.Errorf("dimension %s: value %g is not an integer", d.Name, v)
			}
			if v < d.Low || v > d.High {
				return fmt.Errorf("dimension %s: value %g outside bounds (%g, %g)", d.Name, v, d.Low, d.High)
			}
		case KindCategorical:
			if v != math.Trunc(v) || v < 0 || int(v) >= len(d.Categories) {
				return fmt.Errorf("dimension %s: invalid category index %g", d.Name, v)
			}
		}
	}
	return nil
}

// Value converts the i-th component of a point into its user-facing value:
// float64 for numeric dimensions, the label string for categorical ones.
func (s *Space) Value(i int, p Point) any {
	d := s.dims[i]
	if d.Kind == KindCategorical {
		return d.Categories[int(p[i])]
	}
	return p[i]
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
