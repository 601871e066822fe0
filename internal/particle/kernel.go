package particle

import (
	"fmt"
	"math"
)

// Kernel is a small odd-sided square convolution kernel with row-major
// coefficients. Construct with NewKernel or one of the stock kernels;
// zero values fail validation inside Convolve.
type Kernel struct {
	Size    int
	Weights []float64
}

// NewKernel builds a kernel from row slices, enforcing an odd square shape
// and finite coefficients.
func NewKernel(rows [][]float64) (Kernel, error) {
	size := len(rows)
	if size == 0 || size%2 == 0 {
		return Kernel{}, fmt.Errorf("%w: %d rows, want odd and positive", ErrInvalidKernel, size)
	}
	k := Kernel{Size: size, Weights: make([]float64, 0, size*size)}
	for y, row := range rows {
		if len(row) != size {
			return Kernel{}, fmt.Errorf("%w: row %d has %d coefficients, want %d", ErrInvalidKernel, y, len(row), size)
		}
		for x, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return Kernel{}, fmt.Errorf("%w: non-finite coefficient at (%d,%d)", ErrInvalidKernel, x, y)
			}
			k.Weights = append(k.Weights, w)
		}
	}
	return k, nil
}

// validate re-checks the invariants NewKernel enforces so that zero-value
// or hand-built kernels are rejected before use.
func (k Kernel) validate() error {
	if k.Size <= 0 || k.Size%2 == 0 {
		return fmt.Errorf("%w: size %d, want odd and positive", ErrInvalidKernel, k.Size)
	}
	if len(k.Weights) != k.Size*k.Size {
		return fmt.Errorf("%w: %d coefficients for size %d", ErrInvalidKernel, len(k.Weights), k.Size)
	}
	for i, w := range k.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: non-finite coefficient at offset %d", ErrInvalidKernel, i)
		}
	}
	return nil
}

// GaussianKernel returns the 3x3 binomial smoothing kernel (1/16 weights).
func GaussianKernel() Kernel {
	return Kernel{Size: 3, Weights: []float64{
		1.0 / 16, 2.0 / 16, 1.0 / 16,
		2.0 / 16, 4.0 / 16, 2.0 / 16,
		1.0 / 16, 2.0 / 16, 1.0 / 16,
	}}
}

// LaplacianKernel returns the 3x3 four-neighbour Laplacian used to pull
// out blob-scale curvature before the enhanced grid is assembled.
func LaplacianKernel() Kernel {
	return Kernel{Size: 3, Weights: []float64{
		0, -1, 0,
		-1, 4, -1,
		0, -1, 0,
	}}
}

// IdentityKernel returns the 3x3 kernel that leaves a grid unchanged.
func IdentityKernel() Kernel {
	return Kernel{Size: 3, Weights: []float64{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}}
}

// uniformKernel returns the size x size mean-filter kernel backing BoxBlur.
func uniformKernel(size int) Kernel {
	w := 1.0 / float64(size*size)
	k := Kernel{Size: size, Weights: make([]float64, size*size)}
	for i := range k.Weights {
		k.Weights[i] = w
	}
	return k
}
