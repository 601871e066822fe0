// Command sweep exercises a running detection service across a grid of
// tuning parameter combinations and reports how the accepted-particle
// counts respond. Frames are read locally and submitted inline, so the
// service needs no shared filesystem.
//
// Two CSVs are produced: a per-combination summary (mean and stddev of
// accepted counts across frames) and a raw file with one row per frame
// per combination.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/gomesfin/puncta/internal/httputil"
	"github.com/gomesfin/puncta/internal/particle"
	"github.com/gomesfin/puncta/internal/particle/imgio"
)

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseCSVIntSlice parses a comma-separated list of ints
func parseCSVIntSlice(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// detectRequest mirrors the service's POST /api/detect body.
type detectRequest struct {
	Source  string      `json:"source"`
	Grid    [][]float64 `json:"grid"`
	Params  paramsBody  `json:"params"`
	Lenient bool        `json:"lenient"`
}

type paramsBody struct {
	WindowSize *int     `json:"window_size,omitempty"`
	ThreshCoef *float64 `json:"thresh_coef,omitempty"`
	Percentile *float64 `json:"percentile,omitempty"`
}

type detectResponse struct {
	Run *struct {
		ID             string  `json:"id"`
		Threshold      float64 `json:"threshold"`
		CandidateCount int     `json:"candidate_count"`
		AcceptedCount  int     `json:"accepted_count"`
	} `json:"run"`
	Detected int    `json:"detected"`
	Reason   string `json:"reason"`
}

func main() {
	serviceURL := flag.String("service", "http://localhost:8080", "Base URL for the detection service")
	framesDir := flag.String("frames", "", "Directory of frame files (CSV or image) to sweep over")
	output := flag.String("output", "", "Output CSV filename (defaults to sweep-<timestamp>.csv)")

	windowList := flag.String("windows", "1,3,5,7", "Comma-separated window sizes (odd)")
	coefList := flag.String("coefs", "0.9,1.1,1.3,1.5", "Comma-separated threshold coefficients")
	percentileList := flag.String("percentiles", "0.95,0.99,0.995", "Comma-separated score percentiles")

	timeout := flag.Duration("timeout", 30*time.Second, "HTTP timeout per detection request")
	flag.Parse()

	if *framesDir == "" {
		log.Fatal("-frames is required")
	}

	windows, err := parseCSVIntSlice(*windowList)
	if err != nil {
		log.Fatalf("Invalid -windows: %v", err)
	}
	coefs, err := parseCSVFloatSlice(*coefList)
	if err != nil {
		log.Fatalf("Invalid -coefs: %v", err)
	}
	percentiles, err := parseCSVFloatSlice(*percentileList)
	if err != nil {
		log.Fatalf("Invalid -percentiles: %v", err)
	}

	frames, err := loadFrames(*framesDir)
	if err != nil {
		log.Fatalf("Failed to load frames: %v", err)
	}
	log.Printf("Loaded %d frames from %s", len(frames), *framesDir)

	totalCombos := len(windows) * len(coefs) * len(percentiles)
	log.Printf("Parameter combinations: %d (windows: %d, coefs: %d, percentiles: %d)",
		totalCombos, len(windows), len(coefs), len(percentiles))

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("sweep-%s.csv", time.Now().Format("20060102-150405"))
	}

	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Could not create output file %s: %v", filename, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	rawFilename := strings.TrimSuffix(filename, ".csv") + "-raw.csv"
	fRaw, err := os.Create(rawFilename)
	if err != nil {
		log.Fatalf("Could not create raw output file %s: %v", rawFilename, err)
	}
	defer fRaw.Close()
	rawW := csv.NewWriter(fRaw)
	defer rawW.Flush()

	w.Write([]string{"window_size", "thresh_coef", "percentile", "frames", "degenerate",
		"accepted_mean", "accepted_stddev", "candidates_mean", "threshold_mean"})
	rawW.Write([]string{"window_size", "thresh_coef", "percentile", "frame",
		"run_id", "candidates", "accepted", "threshold", "reason"})

	client := httputil.NewStandardClient(&http.Client{Timeout: *timeout})

	comboNum := 0
	for _, window := range windows {
		for _, coef := range coefs {
			for _, pct := range percentiles {
				comboNum++
				log.Printf("=== Combination %d/%d: window=%d, coef=%.3f, percentile=%.4f ===",
					comboNum, totalCombos, window, coef, pct)

				var accepted, candidates, thresholds []float64
				degenerate := 0
				for _, fr := range frames {
					resp, err := submitDetection(client, *serviceURL, fr, window, coef, pct)
					if err != nil {
						log.Printf("ERROR: %s: %v", fr.name, err)
						continue
					}
					if resp.Run == nil {
						degenerate++
						rawW.Write([]string{
							strconv.Itoa(window), formatFloat(coef), formatFloat(pct),
							fr.name, "", "0", "0", "", resp.Reason,
						})
						continue
					}
					accepted = append(accepted, float64(resp.Run.AcceptedCount))
					candidates = append(candidates, float64(resp.Run.CandidateCount))
					thresholds = append(thresholds, resp.Run.Threshold)
					rawW.Write([]string{
						strconv.Itoa(window), formatFloat(coef), formatFloat(pct),
						fr.name, resp.Run.ID,
						strconv.Itoa(resp.Run.CandidateCount),
						strconv.Itoa(resp.Run.AcceptedCount),
						formatFloat(resp.Run.Threshold), "",
					})
				}
				rawW.Flush()

				acceptedMean, acceptedStd := stat.MeanStdDev(accepted, nil)
				candidatesMean := stat.Mean(candidates, nil)
				thresholdMean := stat.Mean(thresholds, nil)
				if len(accepted) == 0 {
					acceptedMean, acceptedStd, candidatesMean, thresholdMean = 0, 0, 0, 0
				}
				if len(accepted) == 1 {
					acceptedStd = 0
				}
				w.Write([]string{
					strconv.Itoa(window), formatFloat(coef), formatFloat(pct),
					strconv.Itoa(len(accepted)), strconv.Itoa(degenerate),
					formatFloat(acceptedMean), formatFloat(acceptedStd),
					formatFloat(candidatesMean), formatFloat(thresholdMean),
				})
				w.Flush()
			}
		}
	}

	log.Printf("Sweep complete!")
	log.Printf("Summary: %s", filename)
	log.Printf("Raw data: %s", rawFilename)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type frame struct {
	name string
	rows [][]float64
}

// loadFrames reads every frame file in dir into inline grid rows.
func loadFrames(dir string) ([]frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var frames []frame
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		default:
			continue
		}
		g, err := imgio.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", e.Name(), err)
		}
		frames = append(frames, frame{name: e.Name(), rows: gridRows(g)})
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frame files in %s", dir)
	}
	return frames, nil
}

func gridRows(g *particle.Grid) [][]float64 {
	rows := make([][]float64, g.Height)
	for y := 0; y < g.Height; y++ {
		rows[y] = g.Cells[y*g.Width : (y+1)*g.Width]
	}
	return rows
}

func submitDetection(client httputil.HTTPClient, baseURL string, fr frame, window int, coef, pct float64) (*detectResponse, error) {
	body := detectRequest{
		Source:  fr.name,
		Grid:    fr.rows,
		Params:  paramsBody{WindowSize: &window, ThreshCoef: &coef, Percentile: &pct},
		Lenient: true,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/detect", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
