package particle

import (
	"fmt"

	"github.com/gomesfin/puncta/internal/monitoring"
)

// Params configures one detection pass.
type Params struct {
	// WindowSize is the side of the square window shared by the maxima
	// scan, the enhancement box blur and the local-mean blur. Must be odd
	// and positive.
	WindowSize int `json:"window_size"`

	// ThreshCoef scales the background-relative significance score
	// attached to each candidate.
	ThreshCoef float64 `json:"thresh_coef"`

	// Percentile is the fraction of candidate scores the acceptance
	// cutoff is taken at.
	Percentile float64 `json:"percentile"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		WindowSize: 3,
		ThreshCoef: 1.3,
		Percentile: 0.99,
	}
}

// Validate checks parameter ranges before a pass runs.
func (p Params) Validate() error {
	if p.WindowSize <= 0 || p.WindowSize%2 == 0 {
		return fmt.Errorf("%w: window size %d, want odd and positive", ErrInvalidKernel, p.WindowSize)
	}
	if p.Percentile < 0 || p.Percentile > 1 {
		return fmt.Errorf("percentile %v out of range [0, 1]", p.Percentile)
	}
	if p.ThreshCoef <= 0 {
		return fmt.Errorf("thresh coef %v, want positive", p.ThreshCoef)
	}
	return nil
}

// Result is the outcome of one detection pass. Candidates holds every
// scored maximum for diagnostics; Accepted is the subset whose score
// strictly exceeds Threshold.
type Result struct {
	Candidates []Candidate     `json:"candidates"`
	Accepted   []Candidate     `json:"accepted"`
	Threshold  float64         `json:"threshold"`
	Background BackgroundStats `json:"background"`
}

// Run executes the full detection pipeline on g: enhance, locate maxima,
// compute background statistics, score candidates against the Hessian
// response and local mean, then split them at the percentile cutoff.
// Pure and deterministic; the input grid is never modified.
func Run(g *Grid, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if err := g.validDims(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	std, err := g.Standardize()
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	enhanced, err := enhanceStandardized(std, p.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	maxima, err := LocalMaxima(enhanced, p.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	// Background statistics come from the standardized input, not the
	// enhanced grid: filter ringing around bright spots would otherwise
	// count as background texture and inflate the deviation.
	bg, err := ComputeBackground(std, maxima)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	response, err := HessianDeterminant(enhanced)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	localMean, err := BoxBlur(enhanced, p.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	cands := buildCandidates(enhanced, response, localMean, maxima, bg, p.ThreshCoef)
	accepted, cutoff, err := classify(cands, p.Percentile)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	monitoring.Logf("[Detect] %dx%d grid: %d candidates, %d accepted, threshold=%.6g",
		g.Width, g.Height, len(cands), len(accepted), cutoff)

	return &Result{
		Candidates: cands,
		Accepted:   accepted,
		Threshold:  cutoff,
		Background: bg,
	}, nil
}
