package space

import (
	"strings"
	"testing"
)

func TestBuildTable(t *testing.T) {
	s := testSpace(t)

	points := []Point{
		{-1.5, 2, 0},
		{0.25, 7, 2},
	}
	table, err := BuildTable(s, points)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	if table.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", table.Len())
	}

	cols := table.Columns()
	if len(cols) != 3 || cols[0] != "x" || cols[2] != "mode" {
		t.Errorf("Unexpected columns: %v", cols)
	}
}

func TestBuildTable_Empty(t *testing.T) {
	s := testSpace(t)

	if _, err := BuildTable(s, nil); err == nil {
		t.Fatal("Expected error for empty point list")
	}
}

func TestBuildTable_InvalidRow(t *testing.T) {
	s := testSpace(t)

	points := []Point{
		{-1.5, 2, 0},
		{99, 2, 0}, // out of bounds
	}
	_, err := BuildTable(s, points)
	if err == nil {
		t.Fatal("Expected error for invalid row")
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("Error should identify the failing row: %v", err)
	}
}

func TestTable_RoundTrip(t *testing.T) {
	s := testSpace(t)

	points := []Point{
		{-2, 1, 0},
		{0, 4, 1},
		{2, 8, 2},
	}
	table, err := BuildTable(s, points)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	got := table.Points()
	if len(got) != len(points) {
		t.Fatalf("Expected %d points, got %d", len(points), len(got))
	}
	for r := range points {
		for i := range points[r] {
			if got[r][i] != points[r][i] {
				t.Errorf("Row %d value %d changed: %g vs %g", r, i, got[r][i], points[r][i])
			}
		}
	}
}

func TestTable_RowIsCopy(t *testing.T) {
	s := testSpace(t)

	table, err := BuildTable(s, []Point{{0, 4, 1}})
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	row := table.Row(0)
	row[0] = 99
	if table.Row(0)[0] != 0 {
		t.Error("Mutating a returned row changed the table")
	}
}

func TestTable_FloatAndValue(t *testing.T) {
	s := testSpace(t)

	table, err := BuildTable(s, []Point{{1.5, 3, 2}})
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	f, err := table.Float(0, "n")
	if err != nil || f != 3 {
		t.Errorf("Float(0, n): expected 3, got %g (err %v)", f, err)
	}

	v, err := table.Value(0, "mode")
	if err != nil || v.(string) != "exact" {
		t.Errorf("Value(0, mode): expected exact, got %v (err %v)", v, err)
	}

	if _, err := table.Float(0, "missing"); err == nil {
		t.Error("Expected error for unknown column")
	}
}

func TestTable_Records(t *testing.T) {
	s := testSpace(t)

	table, err := BuildTable(s, []Point{
		{-1, 2, 0},
		{1, 5, 1},
	})
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}

	recs := table.Records()
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[0]["x"].(float64) != -1 {
		t.Errorf("Record 0 x: expected -1, got %v", recs[0]["x"])
	}
	if recs[1]["mode"].(string) != "slow" {
		t.Errorf("Record 1 mode: expected slow, got %v", recs[1]["mode"])
	}
}
