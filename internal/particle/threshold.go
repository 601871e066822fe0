package particle

import (
	"fmt"
	"math"
	"sort"
)

// percentileLinear returns the p-quantile of sorted using linear
// interpolation between order statistics: with h = (n-1)*p, the result is
// sorted[floor(h)] + frac(h) * (sorted[floor(h)+1] - sorted[floor(h)]).
func percentileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// classify computes the percentile cutoff over all candidate scores and
// returns the candidates that strictly exceed it. Boundary ties are
// rejected, so roughly the top (1-p) fraction survives. Fails with
// ErrEmptyCandidateSet when there are no candidates to rank.
func classify(cands []Candidate, percentile float64) (accepted []Candidate, cutoff float64, err error) {
	if len(cands) == 0 {
		return nil, 0, fmt.Errorf("%w: no maxima to rank", ErrEmptyCandidateSet)
	}
	if percentile < 0 || percentile > 1 || math.IsNaN(percentile) {
		return nil, 0, fmt.Errorf("percentile %v out of range [0, 1]", percentile)
	}

	scores := make([]float64, len(cands))
	for i, c := range cands {
		scores[i] = c.Score
	}
	sort.Float64s(scores)
	cutoff = percentileLinear(scores, percentile)

	for _, c := range cands {
		if c.Score > cutoff {
			accepted = append(accepted, c)
		}
	}
	return accepted, cutoff, nil
}
