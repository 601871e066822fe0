package particle

// Candidate is one scored local maximum. Records are built once per
// detection pass and never mutated afterwards.
type Candidate struct {
	X int `json:"x"`
	Y int `json:"y"`

	// Intensity is the enhanced-grid sample at (X, Y).
	Intensity float64 `json:"intensity"`

	// Hessian is the determinant-of-Hessian response at (X, Y).
	Hessian float64 `json:"hessian"`

	// LocalMean is the box-blurred enhanced intensity at (X, Y), using the
	// same window size as the maxima scan.
	LocalMean float64 `json:"local_mean"`

	// Score is LocalMean * Hessian, the quantity the percentile cutoff is
	// taken over.
	Score float64 `json:"score"`

	// Significance is threshCoef * (Intensity - background mean) /
	// background deviation. IsSignificant compares Intensity against it.
	// Both are diagnostic fields only; neither feeds the primary
	// percentile threshold.
	Significance  float64 `json:"significance"`
	IsSignificant bool    `json:"is_significant"`
}

// buildCandidates joins the maxima with the derived grids by direct
// indexed lookup. All three grids share the enhanced grid's dimensions.
func buildCandidates(enhanced, response, localMean *Grid, maxima []Maximum, bg BackgroundStats, threshCoef float64) []Candidate {
	out := make([]Candidate, 0, len(maxima))
	for _, m := range maxima {
		i := m.Y*enhanced.Width + m.X
		intensity := enhanced.Cells[i]
		sig := threshCoef * (intensity - bg.Mean) / bg.StdDev
		out = append(out, Candidate{
			X:             m.X,
			Y:             m.Y,
			Intensity:     intensity,
			Hessian:       response.Cells[i],
			LocalMean:     localMean.Cells[i],
			Score:         localMean.Cells[i] * response.Cells[i],
			Significance:  sig,
			IsSignificant: intensity > sig,
		})
	}
	return out
}
