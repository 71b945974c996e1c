package space

import (
	"fmt"
	"strings"
)

// Table is the parameter table handed to an evaluation routine: one row per
// candidate point, columns named by dimension in the engine's own order.
// A table is produced fresh each round and never persisted.
type Table struct {
	space  *Space
	points []Point
}

// BuildTable validates the points against the space and wraps them in a
// Table. Any malformed point fails the whole build.
func BuildTable(s *Space, points []Point) (*Table, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("build table: no points")
	}
	for i, p := range points {
		if err := s.Check(p); err != nil {
			return nil, fmt.Errorf("build table: row %d: %w", i, err)
		}
	}
	owned := make([]Point, len(points))
	for i, p := range points {
		owned[i] = append(Point(nil), p...)
	}
	return &Table{space: s, points: owned}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.points) }

// Columns returns the column names in vector order.
func (t *Table) Columns() []string { return t.space.Names() }

// Row returns a copy of row i as a raw point.
func (t *Table) Row(i int) Point {
	return append(Point(nil), t.points[i]...)
}

// Points returns copies of all rows, preserving order. Round-tripping points
// through BuildTable and Points recovers identical values.
func (t *Table) Points() []Point {
	out := make([]Point, len(t.points))
	for i := range t.points {
		out[i] = t.Row(i)
	}
	return out
}

// Float returns the numeric value at (row, column). Categorical columns
// return their category index.
func (t *Table) Float(row int, col string) (float64, error) {
	i, ok := t.space.Index(col)
	if !ok {
		return 0, fmt.Errorf("table: unknown column %s", col)
	}
	return t.points[row][i], nil
}

// Value returns the user-facing value at (row, column): float64 for numeric
// columns, the label string for categorical ones.
func (t *Table) Value(row int, col string) (any, error) {
	i, ok := t.space.Index(col)
	if !ok {
		return nil, fmt.Errorf("table: unknown column %s", col)
	}
	return t.space.Value(i, t.points[row]), nil
}

// Records returns one name→value map per row, in row order.
func (t *Table) Records() []map[string]any {
	recs := make([]map[string]any, len(t.points))
	for r, p := range t.points {
		rec := make(map[string]any, t.space.Len())
		for i, name := range t.space.Names() {
			rec[name] = t.space.Value(i, p)
		}
		recs[r] = rec
	}
	return recs
}

// String renders a compact textual view, mainly for logs and debugging.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns(), "\t"))
	b.WriteByte('\n')
	for _, p := range t.points {
		for i := range p {
			if i > 0 {
				b.WriteByte('\t')
			}
			fmt.Fprintf(&b, "%v", t.space.Value(i, p))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
