// Package imgio loads microscopy frames into particle grids. It decodes
// PNG, JPEG and TIFF images to luminance grids, crops regions of
// interest, and reads and writes plain CSV grids for numeric fixtures.
// The detection engine itself never touches files; everything
// path-shaped lives here or in the callers.
package imgio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"

	"github.com/gomesfin/puncta/internal/particle"
)

// Rect is a half-open crop region [X0, X1) x [Y0, Y1) in pixel
// coordinates. The zero value means "no crop".
type Rect struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// IsZero reports whether r requests no cropping.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Decode reads one image from r and converts it to a luminance grid.
// Sample values are on the decoder's 16-bit scale (0-65535), so 16-bit
// TIFF and PNG sources keep their full depth; the pipeline standardizes
// the range anyway.
func Decode(r io.Reader) (*particle.Grid, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	g, err := fromImage(img)
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}
	return g, nil
}

// fromImage flattens img to luminance with the Rec. 601 weights.
func fromImage(img image.Image) (*particle.Grid, error) {
	bounds := img.Bounds()
	g, err := particle.NewGrid(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gc, b, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r) + 0.587*float64(gc) + 0.114*float64(b)
			g.Set(x-bounds.Min.X, y-bounds.Min.Y, lum)
		}
	}
	return g, nil
}

// LoadImage decodes the image file at path into a grid.
func LoadImage(path string) (*particle.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Load reads the grid at path, dispatching on extension: .csv loads a
// numeric CSV grid, anything else goes through the image decoders.
func Load(path string) (*particle.Grid, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSVFile(path)
	}
	return LoadImage(path)
}

// Crop returns the sub-grid of g covered by r. Fails when r is empty,
// inverted, or extends outside g.
func Crop(g *particle.Grid, r Rect) (*particle.Grid, error) {
	if r.X0 < 0 || r.Y0 < 0 || r.X1 > g.Width || r.Y1 > g.Height || r.X0 >= r.X1 || r.Y0 >= r.Y1 {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) invalid for %dx%d grid",
			r.X0, r.Y0, r.X1, r.Y1, g.Width, g.Height)
	}
	out, err := particle.NewGrid(r.X1-r.X0, r.Y1-r.Y0)
	if err != nil {
		return nil, err
	}
	for y := r.Y0; y < r.Y1; y++ {
		src := g.Cells[y*g.Width+r.X0 : y*g.Width+r.X1]
		copy(out.Cells[(y-r.Y0)*out.Width:], src)
	}
	return out, nil
}
