package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gomesfin/puncta/internal/particle"
)

// viridis color ramp for the score visual map.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// RenderReport writes a standalone HTML scatter of every candidate,
// positioned at its pixel coordinates and colored by score, with the run
// summary in the chart subtitle. Accepted detections are a second series
// drawn with larger symbols.
func RenderReport(w io.Writer, res *particle.Result, source string) error {
	if res == nil || len(res.Candidates) == 0 {
		return fmt.Errorf("render report: no candidates")
	}

	minScore, maxScore := res.Candidates[0].Score, res.Candidates[0].Score
	all := make([]opts.ScatterData, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		if c.Score < minScore {
			minScore = c.Score
		}
		if c.Score > maxScore {
			maxScore = c.Score
		}
		all = append(all, opts.ScatterData{Value: []interface{}{c.X, c.Y, c.Score}})
	}
	hits := make([]opts.ScatterData, 0, len(res.Accepted))
	for _, c := range res.Accepted {
		hits = append(hits, opts.ScatterData{Value: []interface{}{c.X, c.Y, c.Score}})
	}

	subtitle := fmt.Sprintf("source=%s candidates=%d accepted=%d threshold=%.6g bg_mean=%.4g bg_sd=%.4g",
		source, len(res.Candidates), len(res.Accepted), res.Threshold,
		res.Background.Mean, res.Background.StdDev)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Particle Detections", Theme: "dark",
			Width: "900px", Height: "900px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Particle Detections", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y (px)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minScore),
			Max:        float32(maxScore),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("candidates", all, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	scatter.AddSeries("accepted", hits, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
