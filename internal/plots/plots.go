// Package plots renders per-round diagnostic artifacts from engine state:
// an evaluations view (pairwise scatter matrix with per-dimension
// histograms) and an objective view (per-dimension objective profiles).
// Both are best-effort collaborators; the loop logs failures and moves on.
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Raul-Ciria-Aylagas/trnpy/internal/engine"
)

// ErrInsufficientData is returned by ExportObjective while the run has fewer
// observations than initial points. Expected early in a run, never fatal.
var ErrInsufficientData = errors.New("not enough observations for objective view")

const tileSize = 3 * vg.Inch

// Exporter writes diagnostic PNGs into a fixed output directory.
type Exporter struct {
	dir string
}

// NewExporter creates the output directory if needed.
func NewExporter(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plots directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// ExportEvaluations writes evaluations.png: a d×d matrix with value
// histograms on the diagonal and pairwise evaluation scatters off it.
func (e *Exporter) ExportEvaluations(snap *engine.Snapshot) error {
	d := len(snap.Dimensions)
	if d < 2 {
		return fmt.Errorf("evaluations view needs at least two dimensions, got %d", d)
	}
	if len(snap.Xi) == 0 {
		return ErrInsufficientData
	}

	names := snap.Names()
	grid := make([][]*plot.Plot, d)
	for row := 0; row < d; row++ {
		grid[row] = make([]*plot.Plot, d)
		for col := 0; col < d; col++ {
			p := plot.New()
			if row == d-1 {
				p.X.Label.Text = names[col]
			}
			if col == 0 {
				p.Y.Label.Text = names[row]
			}
			var err error
			if row == col {
				err = addHistogram(p, column(snap.Xi, col))
			} else {
				err = addScatter(p, column(snap.Xi, col), column(snap.Xi, row))
			}
			if err != nil {
				return fmt.Errorf("evaluations view [%d,%d]: %w", row, col, err)
			}
			grid[row][col] = p
		}
	}
	return e.saveGrid(grid, "evaluations.png")
}

// ExportObjective writes objective.png: one objective-vs-value profile per
// dimension, with a binned mean overlaid. Returns ErrInsufficientData until
// the initial sampling phase has produced enough observations.
func (e *Exporter) ExportObjective(snap *engine.Snapshot) error {
	d := len(snap.Dimensions)
	min := snap.NInitialPoints
	if min < 2 {
		min = 2
	}
	if len(snap.Yi) < min {
		return ErrInsufficientData
	}

	best := 0
	for i, y := range snap.Yi {
		if y < snap.Yi[best] {
			best = i
		}
	}

	names := snap.Names()
	row := make([]*plot.Plot, d)
	for col := 0; col < d; col++ {
		p := plot.New()
		p.X.Label.Text = names[col]
		p.Y.Label.Text = "objective"

		xs := column(snap.Xi, col)
		if err := addScatter(p, xs, snap.Yi); err != nil {
			return fmt.Errorf("objective view %s: %w", names[col], err)
		}
		if err := addBinnedMean(p, xs, snap.Yi); err != nil {
			return fmt.Errorf("objective view %s: %w", names[col], err)
		}
		if err := addBestMarker(p, xs[best], snap.Yi[best]); err != nil {
			return fmt.Errorf("objective view %s: %w", names[col], err)
		}
		row[col] = p
	}
	return e.saveGrid([][]*plot.Plot{row}, "objective.png")
}

// saveGrid tiles the plots onto one canvas and writes a PNG atomically.
func (e *Exporter) saveGrid(grid [][]*plot.Plot, name string) error {
	rows := len(grid)
	cols := len(grid[0])

	img := vgimg.New(vg.Length(cols)*tileSize, vg.Length(rows)*tileSize)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: rows, Cols: cols, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align(grid, tiles, dc)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	path := filepath.Join(e.dir, name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode plot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close plot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename plot file: %w", err)
	}
	return nil
}

func column(xi [][]float64, col int) []float64 {
	out := make([]float64, len(xi))
	for i, p := range xi {
		out[i] = p[col]
	}
	return out
}

func addScatter(p *plot.Plot, xs, ys []float64) error {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)
	return nil
}

func addHistogram(p *plot.Plot, xs []float64) error {
	bins := 10
	if len(xs) < bins {
		bins = len(xs)
	}
	h, err := plotter.NewHist(plotter.Values(xs), bins)
	if err != nil {
		return err
	}
	p.Add(h)
	return nil
}

// addBinnedMean overlays the mean objective per value bin, a cheap stand-in
// for a partial dependence curve.
func addBinnedMean(p *plot.Plot, xs, ys []float64) error {
	const bins = 8
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi <= lo {
		return nil
	}

	sums := make([]float64, bins)
	counts := make([]int, bins)
	width := (hi - lo) / bins
	for i, x := range xs {
		b := int((x - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		sums[b] += ys[i]
		counts[b]++
	}

	var pts plotter.XYs
	for b := 0; b < bins; b++ {
		if counts[b] == 0 {
			continue
		}
		pts = append(pts, plotter.XY{
			X: lo + (float64(b)+0.5)*width,
			Y: sums[b] / float64(counts[b]),
		})
	}
	if len(pts) < 2 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	return nil
}

// addBestMarker highlights the best observation.
func addBestMarker(p *plot.Plot, x, y float64) error {
	s, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
	if err != nil {
		return err
	}
	s.GlyphStyle.Shape = draw.CrossGlyph{}
	s.GlyphStyle.Radius = vg.Points(4)
	s.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
	p.Add(s)
	return nil
}
