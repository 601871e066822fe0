package particle

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func candidatesWithScores(scores []float64) []Candidate {
	out := make([]Candidate, len(scores))
	for i, s := range scores {
		out[i] = Candidate{X: i, Score: s}
	}
	return out
}

func TestPercentileLinearInterpolation(t *testing.T) {
	cases := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single sample", []float64{3}, 0.99, 3},
		{"median of two", []float64{1, 3}, 0.5, 2},
		{"interpolated", []float64{0, 10}, 0.25, 2.5},
		{"top of range", []float64{1, 2, 3}, 1, 3},
		{"bottom of range", []float64{1, 2, 3}, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := percentileLinear(tc.sorted, tc.p); math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("percentileLinear(%v, %v) = %v, want %v", tc.sorted, tc.p, got, tc.want)
			}
		})
	}
}

// With 100 distinct scores and p = 0.99, the interpolated cutoff lands
// between the 99th and 100th order statistic, so exactly one candidate
// strictly exceeds it.
func TestClassifyHundredDistinctScoresAcceptsOne(t *testing.T) {
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = float64(i)
	}
	accepted, cutoff, err := classify(candidatesWithScores(scores), 0.99)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(accepted) != 1 {
		t.Fatalf("accepted %d candidates, want 1", len(accepted))
	}
	if accepted[0].Score != 99 {
		t.Errorf("accepted score = %v, want 99", accepted[0].Score)
	}
	if cutoff <= 98 || cutoff >= 99 {
		t.Errorf("cutoff = %v, want in (98, 99)", cutoff)
	}
}

// Roughly the top 1% of a large score population survives the cutoff.
func TestClassifyAcceptsAboutOnePercent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	scores := make([]float64, 1000)
	for i := range scores {
		scores[i] = rng.Float64()
	}
	accepted, _, err := classify(candidatesWithScores(scores), 0.99)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(accepted) < 5 || len(accepted) > 15 {
		t.Errorf("accepted %d of 1000, want about 10", len(accepted))
	}
}

// Candidates tied exactly at the cutoff are rejected; equal top scores are
// never split, both survive or neither does.
func TestClassifyBoundaryTiesRejectedTogether(t *testing.T) {
	// ten candidates, top two tied: cutoff interpolates inside the tied
	// pair and equals the tied score, so score > cutoff excludes both.
	scores := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 9}
	accepted, cutoff, err := classify(candidatesWithScores(scores), 0.99)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cutoff != 9 {
		t.Errorf("cutoff = %v, want 9", cutoff)
	}
	if len(accepted) != 0 {
		t.Errorf("accepted %d candidates, want 0 (tied pair excluded together)", len(accepted))
	}
}

func TestClassifyEmptySet(t *testing.T) {
	_, _, err := classify(nil, 0.99)
	if !errors.Is(err, ErrEmptyCandidateSet) {
		t.Errorf("empty set error = %v, want ErrEmptyCandidateSet", err)
	}
}

func TestClassifyRejectsBadPercentile(t *testing.T) {
	cands := candidatesWithScores([]float64{1, 2})
	for _, p := range []float64{-0.1, 1.1, math.NaN()} {
		if _, _, err := classify(cands, p); err == nil {
			t.Errorf("percentile %v: expected error", p)
		}
	}
}
