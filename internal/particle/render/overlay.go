// Package render turns detection results into artifacts for humans: an
// overlay PNG of the grid with accepted detections ringed, a standalone
// HTML report of the candidate table, and CSV export.
package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gomesfin/puncta/internal/particle"
)

// gridXYZ adapts a particle grid to the plotter heat map interface. Rows
// are flipped so the image origin stays top-left in the rendered plot.
type gridXYZ struct {
	g *particle.Grid
}

func (d gridXYZ) Dims() (c, r int)   { return d.g.Width, d.g.Height }
func (d gridXYZ) X(c int) float64    { return float64(c) }
func (d gridXYZ) Y(r int) float64    { return float64(r) }
func (d gridXYZ) Z(c, r int) float64 { return d.g.At(c, d.g.Height-1-r) }

// SaveOverlayPNG renders g as a heat map with each accepted candidate
// ringed, and writes the plot to a PNG at path.
func SaveOverlayPNG(path string, g *particle.Grid, accepted []particle.Candidate) error {
	p, width, height, err := overlayPlot(g, accepted)
	if err != nil {
		return err
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	return nil
}

// WriteOverlayPNG renders the overlay directly to w, for HTTP handlers.
func WriteOverlayPNG(w io.Writer, g *particle.Grid, accepted []particle.Candidate) error {
	p, width, height, err := overlayPlot(g, accepted)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render overlay: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write overlay: %w", err)
	}
	return nil
}

func overlayPlot(g *particle.Grid, accepted []particle.Candidate) (*plot.Plot, vg.Length, vg.Length, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d detections", len(accepted))
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"

	heat := plotter.NewHeatMap(gridXYZ{g}, palette.Heat(16, 1))
	p.Add(heat)

	pts := make(plotter.XYs, len(accepted))
	for i, c := range accepted {
		pts[i].X = float64(c.X)
		pts[i].Y = float64(g.Height - 1 - c.Y)
	}
	rings, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("overlay scatter: %w", err)
	}
	rings.GlyphStyle.Shape = draw.RingGlyph{}
	rings.GlyphStyle.Radius = vg.Points(6)
	rings.GlyphStyle.Color = color.RGBA{G: 255, A: 255}
	p.Add(rings)

	// keep pixels square regardless of grid aspect
	const width = 8 * vg.Inch
	height := width * vg.Length(g.Height) / vg.Length(g.Width)
	return p, width, height, nil
}
