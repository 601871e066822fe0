package particle

import "fmt"

// clampIndex keeps v inside [lo, hi]. Windowed operations use it to
// replicate edge samples instead of shrinking the output or padding with
// zeros; the same boundary policy applies to every stage in the package.
func clampIndex(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Convolve applies kernel k to g and returns a grid of identical
// dimensions. Each output sample is the weighted sum of the input
// neighbourhood centred on it, with edge samples replicated outward.
// Summation runs in fixed kernel order, so results are bit-identical
// across runs.
func Convolve(g *Grid, k Kernel) (*Grid, error) {
	if err := g.validDims(); err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}
	if err := k.validate(); err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}

	out := &Grid{Width: g.Width, Height: g.Height, Cells: make([]float64, len(g.Cells))}
	r := k.Size / 2
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			var sum float64
			for ky := -r; ky <= r; ky++ {
				sy := clampIndex(y+ky, 0, g.Height-1)
				rowOff := sy * g.Width
				kOff := (ky + r) * k.Size
				for kx := -r; kx <= r; kx++ {
					sx := clampIndex(x+kx, 0, g.Width-1)
					sum += g.Cells[rowOff+sx] * k.Weights[kOff+kx+r]
				}
			}
			out.Cells[y*g.Width+x] = sum
		}
	}
	return out, nil
}

// BoxBlur applies a size x size mean filter. Size 1 is the identity.
func BoxBlur(g *Grid, size int) (*Grid, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("box blur: %w: size %d, want odd and positive", ErrInvalidKernel, size)
	}
	out, err := Convolve(g, uniformKernel(size))
	if err != nil {
		return nil, fmt.Errorf("box blur: %w", err)
	}
	return out, nil
}
