package particle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BackgroundStats summarises intensity over the pixels that are not local
// maxima. Recomputed fresh for every detection pass; never persisted
// between images.
type BackgroundStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"sd"`
	Pixels int     `json:"pixels"`
}

// ComputeBackground masks the maxima out of g and returns the mean and
// sample standard deviation of the remaining pixels. Fails with
// ErrInsufficientBackground when the background set is empty or has zero
// variance; a NaN or infinite deviation is never allowed to escape into
// candidate scoring.
func ComputeBackground(g *Grid, maxima []Maximum) (BackgroundStats, error) {
	if err := g.validDims(); err != nil {
		return BackgroundStats{}, fmt.Errorf("background: %w", err)
	}

	mask := make([]bool, len(g.Cells))
	for _, m := range maxima {
		mask[m.Y*g.Width+m.X] = true
	}
	vals := make([]float64, 0, len(g.Cells)-len(maxima))
	for i, v := range g.Cells {
		if !mask[i] {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return BackgroundStats{}, fmt.Errorf("%w: every pixel is a local maximum", ErrInsufficientBackground)
	}

	mean, sd := stat.MeanStdDev(vals, nil)
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return BackgroundStats{}, fmt.Errorf("%w: background deviation is %v over %d pixels", ErrInsufficientBackground, sd, len(vals))
	}
	return BackgroundStats{Mean: mean, StdDev: sd, Pixels: len(vals)}, nil
}
