package particle

import "errors"

// Error kinds surfaced by the detection engine. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can match with errors.Is.
var (
	// ErrInvalidKernel reports a malformed convolution kernel or window:
	// even dimensions, size below one, non-square shape or non-finite
	// coefficients.
	ErrInvalidKernel = errors.New("invalid kernel")

	// ErrDimensionMismatch reports a grid with zero or inconsistent
	// dimensions, or two grids whose shapes disagree.
	ErrDimensionMismatch = errors.New("grid dimension mismatch")

	// ErrInsufficientBackground reports that the non-maxima pixel set is
	// empty or has zero variance, so significance cannot be computed.
	ErrInsufficientBackground = errors.New("insufficient background")

	// ErrEmptyCandidateSet reports that no local maxima were found, so no
	// percentile threshold is defined.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrDegenerateGrid reports a grid with no finite samples at all.
	ErrDegenerateGrid = errors.New("degenerate grid")
)
