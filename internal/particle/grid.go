// Package particle implements the fluorescent particle detection engine:
// the 2-D grid representation, the blob-enhancement filter cascade, the
// determinant-of-Hessian response, local-maxima extraction and the
// percentile score classifier.
//
// Every stage consumes a Grid and produces a new Grid or record slice;
// nothing mutates its input. Results are deterministic for a given grid
// and parameter set.
package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Grid is a dense 2-D image of float64 samples stored row-major. Width and
// Height are fixed at construction. Pipeline stages treat grids as
// immutable snapshots and allocate a fresh Grid for their output.
type Grid struct {
	Width  int
	Height int
	Cells  []float64
}

// NewGrid allocates a zero-filled Width x Height grid.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensionMismatch, width, height)
	}
	return &Grid{Width: width, Height: height, Cells: make([]float64, width*height)}, nil
}

// GridFromRows builds a grid from row slices. Every row must have the same
// non-zero length.
func GridFromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDimensionMismatch)
	}
	width := len(rows[0])
	g, err := NewGrid(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrDimensionMismatch, y, len(row), width)
		}
		copy(g.Cells[y*width:(y+1)*width], row)
	}
	return g, nil
}

// Idx returns the offset of (x, y) into Cells.
func (g *Grid) Idx(x, y int) int {
	return y*g.Width + x
}

// At returns the sample at (x, y). Callers are responsible for bounds.
func (g *Grid) At(x, y int) float64 {
	return g.Cells[y*g.Width+x]
}

// Set writes the sample at (x, y).
func (g *Grid) Set(x, y int, v float64) {
	g.Cells[y*g.Width+x] = v
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, Cells: make([]float64, len(g.Cells))}
	copy(out.Cells, g.Cells)
	return out
}

// validDims reports whether g is usable as a pipeline input.
func (g *Grid) validDims() error {
	if g == nil || g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: nil or zero-sized grid", ErrDimensionMismatch)
	}
	if len(g.Cells) != g.Width*g.Height {
		return fmt.Errorf("%w: %d cells for %dx%d grid", ErrDimensionMismatch, len(g.Cells), g.Width, g.Height)
	}
	return nil
}

// sameShape fails when o cannot be combined elementwise with g.
func (g *Grid) sameShape(o *Grid) error {
	if err := g.validDims(); err != nil {
		return err
	}
	if err := o.validDims(); err != nil {
		return err
	}
	if g.Width != o.Width || g.Height != o.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, g.Width, g.Height, o.Width, o.Height)
	}
	return nil
}

// Add returns the elementwise sum g + o.
func (g *Grid) Add(o *Grid) (*Grid, error) {
	if err := g.sameShape(o); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	out := g.Clone()
	floats.Add(out.Cells, o.Cells)
	return out, nil
}

// Sub returns the elementwise difference g - o.
func (g *Grid) Sub(o *Grid) (*Grid, error) {
	if err := g.sameShape(o); err != nil {
		return nil, fmt.Errorf("sub: %w", err)
	}
	out := g.Clone()
	floats.Sub(out.Cells, o.Cells)
	return out, nil
}

// Scale returns g with every sample multiplied by k.
func (g *Grid) Scale(k float64) *Grid {
	out := g.Clone()
	floats.Scale(k, out.Cells)
	return out
}

// MinMax returns the global minimum and maximum over finite samples.
// Fails with ErrDegenerateGrid when no sample is finite.
func (g *Grid) MinMax() (min, max float64, err error) {
	if err := g.validDims(); err != nil {
		return 0, 0, err
	}
	finite := make([]float64, 0, len(g.Cells))
	for _, v := range g.Cells {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0, fmt.Errorf("%w: no finite samples", ErrDegenerateGrid)
	}
	return floats.Min(finite), floats.Max(finite), nil
}

// Standardize maps every sample v to (v - min) / (max - min) so the output
// spans [0, 1]. A flat grid (max == min) maps to v - min instead, yielding
// all zeros rather than a division by zero; that degenerate case is a
// documented policy, not an error.
func (g *Grid) Standardize() (*Grid, error) {
	min, max, err := g.MinMax()
	if err != nil {
		return nil, fmt.Errorf("standardize: %w", err)
	}
	out := g.Clone()
	span := max - min
	for i, v := range out.Cells {
		if span == 0 {
			out.Cells[i] = v - min
		} else {
			out.Cells[i] = (v - min) / span
		}
	}
	return out, nil
}
