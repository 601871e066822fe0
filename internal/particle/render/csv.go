package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gomesfin/puncta/internal/particle"
)

// candidateHeader is the column order of the exported candidate table.
var candidateHeader = []string{
	"x", "y", "intensity", "hessian", "local_mean",
	"score", "significance", "is_significant", "accepted",
}

// WriteCandidatesCSV writes the full candidate table with an accepted
// column derived from the run threshold.
func WriteCandidatesCSV(w io.Writer, cands []particle.Candidate, threshold float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(candidateHeader); err != nil {
		return fmt.Errorf("write candidate header: %w", err)
	}
	for _, c := range cands {
		record := []string{
			strconv.Itoa(c.X),
			strconv.Itoa(c.Y),
			strconv.FormatFloat(c.Intensity, 'g', -1, 64),
			strconv.FormatFloat(c.Hessian, 'g', -1, 64),
			strconv.FormatFloat(c.LocalMean, 'g', -1, 64),
			strconv.FormatFloat(c.Score, 'g', -1, 64),
			strconv.FormatFloat(c.Significance, 'g', -1, 64),
			strconv.FormatBool(c.IsSignificant),
			strconv.FormatBool(c.Score > threshold),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write candidate row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
