package particle

import "fmt"

// Enhance runs the blob-enhancement cascade: standardize the raw grid,
// box-blur it at the detection window size, smooth with the Gaussian
// kernel, sharpen with the Laplacian kernel, then add the standardized
// grid back. The result is the enhanced grid every downstream stage
// (response, maxima, local mean) operates on.
func Enhance(g *Grid, windowSize int) (*Grid, error) {
	std, err := g.Standardize()
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	return enhanceStandardized(std, windowSize)
}

// enhanceStandardized runs the cascade on an already-standardized grid.
// Run calls this directly so it can reuse the standardized grid for
// background statistics.
func enhanceStandardized(std *Grid, windowSize int) (*Grid, error) {
	blurred, err := BoxBlur(std, windowSize)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	smoothed, err := Convolve(blurred, GaussianKernel())
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	sharpened, err := Convolve(smoothed, LaplacianKernel())
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	enhanced, err := sharpened.Add(std)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	return enhanced, nil
}
