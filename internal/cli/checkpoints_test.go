package cli

import (
	"fmt"
	"testing"
	"time"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/store"
)

func makeInfos(count int) []store.CheckpointInfo {
	infos := make([]store.CheckpointInfo, count)
	// Offset by half a day so no timestamp lands exactly on an age cutoff.
	base := time.Now().Add(-time.Duration(count)*24*time.Hour + 12*time.Hour)
	for i := range infos {
		infos[i] = store.CheckpointInfo{
			RunID:     fmt.Sprintf("run-%d", i),
			Round:     i + 1,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	return infos
}

func TestSelectCheckpointsForDeletion_KeepLast(t *testing.T) {
	infos := makeInfos(5)

	toDelete := selectCheckpointsForDeletion(infos, 2, 0)
	if len(toDelete) != 3 {
		t.Fatalf("Expected 3 checkpoints to delete, got %d", len(toDelete))
	}
	// The oldest three go; the newest two stay.
	for _, info := range toDelete {
		if info.RunID == "run-3" || info.RunID == "run-4" {
			t.Errorf("Checkpoint %s should be kept", info.RunID)
		}
	}
}

func TestSelectCheckpointsForDeletion_OlderThan(t *testing.T) {
	infos := makeInfos(5) // ages 4.5 down to 0.5 days

	toDelete := selectCheckpointsForDeletion(infos, 0, 3)
	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 checkpoints older than 3 days, got %d", len(toDelete))
	}
}

func TestSelectCheckpointsForDeletion_Combined(t *testing.T) {
	infos := makeInfos(5)

	// Age limit marks the 2 oldest; keep-last 1 then marks 2 more, without
	// double-counting the already marked ones.
	toDelete := selectCheckpointsForDeletion(infos, 1, 3)
	if len(toDelete) != 4 {
		t.Fatalf("Expected 4 checkpoints to delete, got %d", len(toDelete))
	}
	for _, info := range toDelete {
		if info.RunID == "run-4" {
			t.Error("The newest checkpoint should survive")
		}
	}
}

func TestSelectCheckpointsForDeletion_NothingMatches(t *testing.T) {
	infos := makeInfos(2)

	if got := selectCheckpointsForDeletion(infos, 5, 0); len(got) != 0 {
		t.Errorf("Expected nothing to delete with keep-last above count, got %d", len(got))
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("short"); got != "short" {
		t.Errorf("Expected short IDs unchanged, got %s", got)
	}
	long := "0123456789abcdef"
	if got := shortID(long); got != "0123456789ab..." {
		t.Errorf("Expected truncated ID, got %s", got)
	}
}
