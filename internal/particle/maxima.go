package particle

import (
	"fmt"
	"math"
)

var negInf = math.Inf(-1)

// Maximum is one local-intensity maximum located by LocalMaxima.
type Maximum struct {
	X     int
	Y     int
	Value float64
}

// LocalMaxima scans g with a square window of side windowSize and returns
// every pixel whose value is greater than or equal to all other pixels in
// its window. The window is clipped at grid borders rather than failing
// there. Ties: a pixel ties only with itself, so each pixel of an
// equal-valued plateau qualifies independently and a flat grid reports
// every pixel; no coordinate is ever reported twice. Output is in
// row-major scan order.
func LocalMaxima(g *Grid, windowSize int) ([]Maximum, error) {
	if err := g.validDims(); err != nil {
		return nil, fmt.Errorf("local maxima: %w", err)
	}
	if windowSize <= 0 || windowSize%2 == 0 {
		return nil, fmt.Errorf("local maxima: %w: window size %d, want odd and positive", ErrInvalidKernel, windowSize)
	}

	r := windowSize / 2
	var out []Maximum
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.Cells[y*g.Width+x]
			if windowMax(g, x, y, r) <= v {
				out = append(out, Maximum{X: x, Y: y, Value: v})
			}
		}
	}
	return out, nil
}

// windowMax returns the largest sample in the border-clipped window of
// radius r around (x, y), excluding (x, y) itself. A 1x1 window has no
// neighbours, so it returns -Inf and the centre trivially qualifies.
func windowMax(g *Grid, x, y, r int) float64 {
	max := negInf
	x0 := clampIndex(x-r, 0, g.Width-1)
	x1 := clampIndex(x+r, 0, g.Width-1)
	y0 := clampIndex(y-r, 0, g.Height-1)
	y1 := clampIndex(y+r, 0, g.Height-1)
	for sy := y0; sy <= y1; sy++ {
		rowOff := sy * g.Width
		for sx := x0; sx <= x1; sx++ {
			if sx == x && sy == y {
				continue
			}
			if v := g.Cells[rowOff+sx]; v > max {
				max = v
			}
		}
	}
	return max
}
