// Command detect runs the particle detection pipeline locally over a
// single frame or a directory of frames, without a running service.
//
// Frames are CSV grids or grayscale images (png, jpeg, tiff). Output is
// a candidate table in CSV or JSON, with optional overlay PNG and HTML
// report artefacts.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gomesfin/puncta/internal/config"
	"github.com/gomesfin/puncta/internal/particle"
	"github.com/gomesfin/puncta/internal/particle/imgio"
	"github.com/gomesfin/puncta/internal/particle/render"
	"github.com/gomesfin/puncta/internal/security"
	"github.com/gomesfin/puncta/internal/units"
)

var frameExtensions = []string{".csv", ".png", ".jpg", ".jpeg", ".tif", ".tiff"}

func main() {
	input := flag.String("input", "", "Input frame (CSV or image) or a directory of frames")
	cropSpec := flag.String("crop", "", "Crop region x,y,w,h in pixels (default: full frame)")
	configPath := flag.String("config", "", "Tuning config JSON (defaults to built-in tuning)")
	windowSize := flag.Int("window", 0, "Override window size (odd, >= 1)")
	threshCoef := flag.Float64("coef", 0, "Override threshold coefficient")
	percentile := flag.Float64("percentile", 0, "Override score percentile")
	output := flag.String("output", "-", "Output candidate table path, or '-' for stdout")
	format := flag.String("format", "csv", "Output format: csv or json")
	unitFlag := flag.String("units", units.Pixels, "Coordinate units for CSV output: "+units.GetValidUnitsString())
	scale := flag.Float64("scale", 0, "Microns per pixel (overrides config; required for -units um)")
	overlayPath := flag.String("overlay", "", "Write a detection overlay PNG to this path")
	reportPath := flag.String("report", "", "Write an HTML report to this path")
	acceptedOnly := flag.Bool("accepted-only", false, "Emit only candidates above the threshold")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent frames in directory mode")
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}
	if *format != "csv" && *format != "json" {
		log.Fatalf("invalid format %q (must be csv or json)", *format)
	}
	if !units.IsValid(*unitFlag) {
		log.Fatalf("invalid units %q (must be one of %s)", *unitFlag, units.GetValidUnitsString())
	}

	cfg := loadConfig(*configPath)
	params := cfg.Params()
	if *windowSize != 0 {
		params.WindowSize = *windowSize
	}
	if *threshCoef != 0 {
		params.ThreshCoef = *threshCoef
	}
	if *percentile != 0 {
		params.Percentile = *percentile
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("invalid detection parameters: %v", err)
	}

	micronsPerPixel := cfg.GetMicronsPerPixel()
	if *scale > 0 {
		micronsPerPixel = *scale
	}
	if *unitFlag == units.Microns && micronsPerPixel <= 0 {
		log.Fatal("-units um requires -scale or microns_per_pixel in the config")
	}

	crop, err := parseCrop(*cropSpec)
	if err != nil {
		log.Fatalf("invalid -crop: %v", err)
	}

	opts := frameOptions{
		params:          params,
		crop:            crop,
		format:          *format,
		unit:            *unitFlag,
		micronsPerPixel: micronsPerPixel,
		acceptedOnly:    *acceptedOnly,
		overlayPath:     *overlayPath,
		reportPath:      *reportPath,
	}

	info, err := os.Stat(*input)
	if err != nil {
		log.Fatalf("stat input: %v", err)
	}

	if info.IsDir() {
		if err := runBatch(*input, *output, opts, *workers); err != nil {
			log.Fatalf("batch detection failed: %v", err)
		}
		return
	}
	if err := runFrame(*input, *output, opts); err != nil {
		log.Fatalf("detection failed: %v", err)
	}
}

func loadConfig(path string) *config.TuningConfig {
	if path == "" {
		return config.MustLoadDefaultConfig()
	}
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		log.Fatalf("Failed to load tuning config: %v", err)
	}
	return cfg
}

// parseCrop parses "x,y,w,h" into a crop rect. Empty means no crop.
func parseCrop(s string) (imgio.Rect, error) {
	if s == "" {
		return imgio.Rect{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return imgio.Rect{}, fmt.Errorf("want x,y,w,h, got %q", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return imgio.Rect{}, fmt.Errorf("invalid value %q: %w", p, err)
		}
		vals[i] = v
	}
	return imgio.Rect{X0: vals[0], Y0: vals[1], X1: vals[0] + vals[2], Y1: vals[1] + vals[3]}, nil
}

type frameOptions struct {
	params          particle.Params
	crop            imgio.Rect
	format          string
	unit            string
	micronsPerPixel float64
	acceptedOnly    bool
	overlayPath     string
	reportPath      string
}

// runFrame detects particles in a single frame and writes the candidate
// table plus any requested artefacts. A frame with no usable background
// or no candidates is reported as zero detections, not a failure.
func runFrame(inPath, outPath string, opts frameOptions) error {
	g, err := imgio.Load(inPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}
	if !opts.crop.IsZero() {
		g, err = imgio.Crop(g, opts.crop)
		if err != nil {
			return fmt.Errorf("crop %s: %w", inPath, err)
		}
	}

	res, err := particle.Run(g, opts.params)
	switch {
	case errors.Is(err, particle.ErrInsufficientBackground) || errors.Is(err, particle.ErrEmptyCandidateSet):
		// Degenerate frames still get a (header-only) candidate table,
		// so batch consumers can tell zero detections from a skipped frame.
		log.Printf("%s: 0 particles detected (%v)", inPath, err)
		res = &particle.Result{}
	case err != nil:
		return fmt.Errorf("detect %s: %w", inPath, err)
	default:
		log.Printf("%s: %d candidates, %d accepted (threshold %.6g)",
			inPath, len(res.Candidates), len(res.Accepted), res.Threshold)
	}

	out, closeOut, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	cands := res.Candidates
	if opts.acceptedOnly {
		cands = res.Accepted
	}
	if err := writeCandidates(out, cands, res.Threshold, opts); err != nil {
		return fmt.Errorf("write candidates: %w", err)
	}

	if opts.overlayPath != "" {
		if err := security.ValidateExportPath(opts.overlayPath); err != nil {
			return fmt.Errorf("overlay path rejected: %w", err)
		}
		if err := render.SaveOverlayPNG(opts.overlayPath, g, res.Accepted); err != nil {
			return fmt.Errorf("write overlay: %w", err)
		}
	}
	if opts.reportPath != "" {
		if len(res.Candidates) == 0 {
			log.Printf("%s: skipping report, no candidates to plot", inPath)
			return nil
		}
		if err := security.ValidateExportPath(opts.reportPath); err != nil {
			return fmt.Errorf("report path rejected: %w", err)
		}
		f, err := os.Create(opts.reportPath)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		if err := render.RenderReport(f, res, inPath); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}
	return nil
}

// runBatch detects particles in every frame file under dir concurrently.
// Per-frame outputs land next to the summary name: <output>/<frame>.candidates.<ext>.
func runBatch(dir, outDir string, opts frameOptions, workers int) error {
	if outDir == "-" || outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var frames []string
	for _, e := range entries {
		if e.IsDir() || !isFrameFile(e.Name()) {
			continue
		}
		frames = append(frames, e.Name())
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frame files in %s", dir)
	}
	log.Printf("processing %d frames with %d workers", len(frames), workers)

	// Overlay and report paths are per-frame in batch mode.
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(workers, 1))
	for _, name := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frameOpts := opts
			base := strings.TrimSuffix(name, filepath.Ext(name))
			if opts.overlayPath != "" {
				frameOpts.overlayPath = filepath.Join(outDir, base+".overlay.png")
			}
			if opts.reportPath != "" {
				frameOpts.reportPath = filepath.Join(outDir, base+".report.html")
			}
			out := filepath.Join(outDir, base+".candidates."+opts.format)
			return runFrame(filepath.Join(dir, name), out, frameOpts)
		})
	}
	return g.Wait()
}

func isFrameFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range frameExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// openOutput resolves the candidate table destination. File paths must
// stay under the temp or working directory.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" || path == "" {
		return os.Stdout, func() {}, nil
	}
	if err := security.ValidateExportPath(path); err != nil {
		return nil, nil, fmt.Errorf("output path rejected: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// writeCandidates emits the candidate table with coordinates converted
// to the requested units.
func writeCandidates(w io.Writer, cands []particle.Candidate, threshold float64, opts frameOptions) error {
	if opts.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Units      string               `json:"units"`
			Threshold  float64              `json:"threshold"`
			Candidates []particle.Candidate `json:"candidates"`
		}{opts.unit, threshold, cands})
	}

	cw := csv.NewWriter(w)
	header := []string{"x_" + opts.unit, "y_" + opts.unit, "intensity", "hessian", "local_mean", "score", "significance", "is_significant", "accepted"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range cands {
		x := units.ConvertCoordinate(float64(c.X), opts.unit, opts.micronsPerPixel)
		y := units.ConvertCoordinate(float64(c.Y), opts.unit, opts.micronsPerPixel)
		row := []string{
			strconv.FormatFloat(x, 'g', -1, 64),
			strconv.FormatFloat(y, 'g', -1, 64),
			strconv.FormatFloat(c.Intensity, 'g', -1, 64),
			strconv.FormatFloat(c.Hessian, 'g', -1, 64),
			strconv.FormatFloat(c.LocalMean, 'g', -1, 64),
			strconv.FormatFloat(c.Score, 'g', -1, 64),
			strconv.FormatFloat(c.Significance, 'g', -1, 64),
			strconv.FormatBool(c.IsSignificant),
			strconv.FormatBool(c.Score > threshold),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
