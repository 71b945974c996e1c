package space

import (
	"math"
	"testing"
)

func testSpace(t *testing.T) *Space {
	t.Helper()

	s, err := New(
		Continuous("x", -2.0, 2.0),
		Integer("n", 1, 8),
		Categorical("mode", "fast", "slow", "exact"),
	)
	if err != nil {
		t.Fatalf("Failed to build test space: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s := testSpace(t)

	if s.Len() != 3 {
		t.Errorf("Expected 3 dimensions, got %d", s.Len())
	}

	names := s.Names()
	want := []string{"x", "n", "mode"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Name %d: expected %s, got %s", i, name, names[i])
		}
	}

	if i, ok := s.Index("n"); !ok || i != 1 {
		t.Errorf("Index(n): expected (1, true), got (%d, %v)", i, ok)
	}
	if _, ok := s.Index("missing"); ok {
		t.Error("Index should not find unknown dimension")
	}
}

func TestNew_NoDimensions(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("Expected error for empty space")
	}
	if !IsConfigError(err) {
		t.Errorf("Expected ConfigError, got %T", err)
	}
}

func TestNew_DuplicateNames(t *testing.T) {
	_, err := New(Continuous("x", 0, 1), Continuous("x", 0, 2))
	if err == nil {
		t.Fatal("Expected error for duplicate dimension names")
	}
	if !IsConfigError(err) {
		t.Errorf("Expected ConfigError, got %T", err)
	}
}

func TestDimensionValidation(t *testing.T) {
	tests := []struct {
		name string
		dim  Dimension
	}{
		{"empty name", Continuous("", 0, 1)},
		{"inverted bounds", Continuous("x", 2, 1)},
		{"equal bounds", Continuous("x", 1, 1)},
		{"integer inverted bounds", Integer("n", 5, 3)},
		{"fractional integer bounds", Dimension{Name: "n", Kind: KindInteger, Low: 0.5, High: 3}},
		{"no categories", Categorical("mode")},
		{"duplicate categories", Categorical("mode", "a", "a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.dim); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestFromUnit(t *testing.T) {
	s := testSpace(t)

	p := s.FromUnit([]float64{0.5, 0.0, 0.99})
	if p[0] != 0 {
		t.Errorf("Continuous midpoint: expected 0, got %g", p[0])
	}
	if p[1] != 1 {
		t.Errorf("Integer at 0: expected 1, got %g", p[1])
	}
	if p[2] != 2 {
		t.Errorf("Categorical at 0.99: expected index 2, got %g", p[2])
	}
}

func TestFromUnit_Clamps(t *testing.T) {
	s := testSpace(t)

	p := s.FromUnit([]float64{-0.5, 1.5, 1.0})
	if p[0] != -2 {
		t.Errorf("Below-zero unit value should clamp to low bound, got %g", p[0])
	}
	if p[1] != 8 {
		t.Errorf("Above-one unit value should clamp to high bound, got %g", p[1])
	}
	// Unit value exactly 1.0 must not index past the last category.
	if p[2] != 2 {
		t.Errorf("Categorical at 1.0: expected last index 2, got %g", p[2])
	}
}

func TestUnitRoundTrip(t *testing.T) {
	s := testSpace(t)

	units := [][]float64{
		{0, 0, 0},
		{0.25, 0.33, 0.5},
		{1, 1, 1},
	}
	for _, u := range units {
		p := s.FromUnit(u)
		back, err := s.ToUnit(p)
		if err != nil {
			t.Fatalf("ToUnit(%v) failed: %v", p, err)
		}
		again := s.FromUnit(back)
		for i := range p {
			if p[i] != again[i] {
				t.Errorf("Round trip changed value %d: %g vs %g (unit %v)", i, p[i], again[i], u)
			}
		}
	}
}

func TestCheck(t *testing.T) {
	s := testSpace(t)

	if err := s.Check(Point{1.5, 4, 1}); err != nil {
		t.Errorf("Valid point rejected: %v", err)
	}

	tests := []struct {
		name string
		p    Point
	}{
		{"wrong length", Point{1, 2}},
		{"continuous out of bounds", Point{3, 4, 1}},
		{"integer not whole", Point{0, 4.5, 1}},
		{"integer out of bounds", Point{0, 9, 1}},
		{"category index out of range", Point{0, 4, 3}},
		{"negative category index", Point{0, 4, -1}},
		{"NaN value", Point{math.NaN(), 4, 1}},
		{"infinite value", Point{math.Inf(1), 4, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Check(tt.p); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestValue(t *testing.T) {
	s := testSpace(t)
	p := Point{-1.25, 3, 1}

	if v := s.Value(0, p); v.(float64) != -1.25 {
		t.Errorf("Continuous value: expected -1.25, got %v", v)
	}
	if v := s.Value(1, p); v.(float64) != 3 {
		t.Errorf("Integer value: expected 3, got %v", v)
	}
	if v := s.Value(2, p); v.(string) != "slow" {
		t.Errorf("Categorical value: expected slow, got %v", v)
	}
}

func TestDimensions_ReturnsCopy(t *testing.T) {
	s := testSpace(t)

	dims := s.Dimensions()
	dims[0].Name = "mutated"
	if s.Dimension(0).Name != "x" {
		t.Error("Mutating the returned slice changed the space")
	}
}
