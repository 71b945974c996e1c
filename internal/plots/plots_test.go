package plots

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// testSnapshot builds an engine snapshot with n observations over two
// dimensions.
func testSnapshot(n int) *engine.Snapshot {
	rng := rand.New(rand.NewSource(3))
	snap := &engine.Snapshot{
		Dimensions: []space.Dimension{
			space.Continuous("x", -2, 2),
			space.Continuous("y", 0, 10),
		},
		NInitialPoints: 5,
	}
	for i := 0; i < n; i++ {
		a := -2 + 4*rng.Float64()
		b := 10 * rng.Float64()
		snap.Xi = append(snap.Xi, []float64{a, b})
		snap.Yi = append(snap.Yi, a*a+b)
	}
	return snap
}

func TestNewExporter_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")

	e, err := NewExporter(dir)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	if e.Dir() != dir {
		t.Errorf("Expected dir %s, got %s", dir, e.Dir())
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Fatal("Plot directory was not created")
	}
}

func TestExportEvaluations(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	if err := e.ExportEvaluations(testSnapshot(12)); err != nil {
		t.Fatalf("ExportEvaluations failed: %v", err)
	}

	path := filepath.Join(dir, "evaluations.png")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected evaluations.png: %v", err)
	}
	if info.Size() == 0 {
		t.Error("evaluations.png is empty")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file left behind")
	}
}

func TestExportEvaluations_NeedsTwoDimensions(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	snap := testSnapshot(12)
	snap.Dimensions = snap.Dimensions[:1]
	for i := range snap.Xi {
		snap.Xi[i] = snap.Xi[i][:1]
	}
	if err := e.ExportEvaluations(snap); err == nil {
		t.Fatal("Expected error for single-dimension snapshot")
	}
}

func TestExportEvaluations_NoData(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	if err := e.ExportEvaluations(testSnapshot(0)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestExportObjective(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	if err := e.ExportObjective(testSnapshot(20)); err != nil {
		t.Fatalf("ExportObjective failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "objective.png"))
	if err != nil {
		t.Fatalf("Expected objective.png: %v", err)
	}
	if info.Size() == 0 {
		t.Error("objective.png is empty")
	}
}

func TestExportObjective_InsufficientData(t *testing.T) {
	e, err := NewExporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}

	// The snapshot declares 5 initial points; fewer observations than that
	// cannot support the profile view yet.
	if err := e.ExportObjective(testSnapshot(3)); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}
