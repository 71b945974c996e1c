package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
	"github.com/Raul-Ciria-Aylagas/trnpy/internal/space"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestCheckpoint creates a checkpoint with test data.
func createTestCheckpoint(runID string) *Checkpoint {
	return &Checkpoint{
		RunID:           runID,
		Round:           5,
		EvaluationsDone: 20,
		BestPoint:       []float64{0.3, 4},
		BestValue:       0.42,
		Timestamp:       time.Now(),
		Engine: &engine.Snapshot{
			Dimensions: []space.Dimension{
				space.Continuous("x", -2, 2),
				space.Integer("n", 1, 8),
			},
			Seed:            1,
			Asks:            5,
			Generator:       "random",
			GeneratorCursor: 10,
			NInitialPoints:  10,
			Xi:              [][]float64{{0.3, 4}, {-1.1, 2}},
			Yi:              []float64{0.42, 1.8},
		},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "test-run-123"
	checkpoint := createTestCheckpoint(runID)

	if err := store.SaveCheckpoint(runID, checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", runID, "checkpoint.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Checkpoint file was not created at %s", expectedPath)
	}

	// Verify no temp file remains
	tempPath := expectedPath + ".tmp"
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save: %s", tempPath)
	}
}

func TestSaveCheckpoint_EmptyRunID(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveCheckpoint("", createTestCheckpoint("any-id")); err == nil {
		t.Fatal("Expected error for empty runID")
	}
}

func TestSaveCheckpoint_NilCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveCheckpoint("test-run", nil); err == nil {
		t.Fatal("Expected error for nil checkpoint")
	}
}

func TestLoadCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "test-run-load"
	saved := createTestCheckpoint(runID)
	if err := store.SaveCheckpoint(runID, saved); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint(runID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.RunID != saved.RunID {
		t.Errorf("RunID mismatch: %s vs %s", loaded.RunID, saved.RunID)
	}
	if loaded.Round != saved.Round {
		t.Errorf("Round mismatch: %d vs %d", loaded.Round, saved.Round)
	}
	if loaded.BestValue != saved.BestValue {
		t.Errorf("BestValue mismatch: %g vs %g", loaded.BestValue, saved.BestValue)
	}
	if loaded.Engine == nil {
		t.Fatal("Engine snapshot missing after load")
	}
	if len(loaded.Engine.Xi) != 2 || len(loaded.Engine.Yi) != 2 {
		t.Errorf("History not restored: %d points, %d objectives",
			len(loaded.Engine.Xi), len(loaded.Engine.Yi))
	}
	if loaded.Engine.Dimensions[1].Kind != space.KindInteger {
		t.Error("Dimension kinds not restored")
	}

	if err := loaded.Validate(); err != nil {
		t.Errorf("Loaded checkpoint should validate: %v", err)
	}
}

func TestLoadCheckpoint_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadCheckpoint("missing-run")
	if err == nil {
		t.Fatal("Expected error for missing checkpoint")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Expected *NotFoundError, got %T", err)
	}
}

func TestSaveCheckpoint_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "test-run-overwrite"
	first := createTestCheckpoint(runID)
	first.BestValue = 0.5

	second := createTestCheckpoint(runID)
	second.BestValue = 0.1
	second.Round = 9

	if err := store.SaveCheckpoint(runID, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := store.SaveCheckpoint(runID, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint(runID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.BestValue != 0.1 || loaded.Round != 9 {
		t.Errorf("Overwrite did not take effect: best=%g round=%d", loaded.BestValue, loaded.Round)
	}
}

func TestLoadCheckpointFile(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "test-run-file"
	if err := store.SaveCheckpoint(runID, createTestCheckpoint(runID)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	path := filepath.Join(tempDir, "runs", runID, "checkpoint.json")
	loaded, err := LoadCheckpointFile(path)
	if err != nil {
		t.Fatalf("LoadCheckpointFile failed: %v", err)
	}
	if loaded.RunID != runID {
		t.Errorf("Expected runID %s, got %s", runID, loaded.RunID)
	}

	if _, err := LoadCheckpointFile(filepath.Join(tempDir, "nope.json")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing file, got %v", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty list, got %d entries", len(infos))
	}

	for _, runID := range []string{"run-a", "run-b", "run-c"} {
		if err := store.SaveCheckpoint(runID, createTestCheckpoint(runID)); err != nil {
			t.Fatalf("SaveCheckpoint(%s) failed: %v", runID, err)
		}
	}

	infos, err = store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 checkpoints, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Dimensions != 2 {
			t.Errorf("Checkpoint %s: expected 2 dimensions, got %d", info.RunID, info.Dimensions)
		}
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "test-run-delete"
	if err := store.SaveCheckpoint(runID, createTestCheckpoint(runID)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if err := store.DeleteCheckpoint(runID); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	runDir := filepath.Join(tempDir, "runs", runID)
	if _, err := os.Stat(runDir); !os.IsNotExist(err) {
		t.Error("Run directory should be removed")
	}

	if err := store.DeleteCheckpoint(runID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}
