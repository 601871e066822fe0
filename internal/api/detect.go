package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gomesfin/puncta/internal/config"
	"github.com/gomesfin/puncta/internal/httputil"
	"github.com/gomesfin/puncta/internal/particle"
	"github.com/gomesfin/puncta/internal/particle/imgio"
	"github.com/gomesfin/puncta/internal/particle/store"
	"github.com/gomesfin/puncta/internal/security"
)

// DetectRequest is the body of POST /detect. Exactly one of Grid or
// ImagePath must be set; ImagePath is resolved under the configured
// image directory. Params overrides are partial.
type DetectRequest struct {
	Source    string               `json:"source"`
	Grid      [][]float64          `json:"grid,omitempty"`
	ImagePath string               `json:"image_path,omitempty"`
	Crop      *imgio.Rect          `json:"crop,omitempty"`
	Params    *config.TuningConfig `json:"params,omitempty"`

	// Lenient maps degenerate inputs (no maxima, unusable background)
	// to a zero-detection response instead of a 422.
	Lenient bool `json:"lenient,omitempty"`
}

// DetectResponse summarises a completed (or leniently degenerate) run.
type DetectResponse struct {
	Run      *store.Run           `json:"run"`
	Accepted []particle.Candidate `json:"accepted"`
	Detected int                  `json:"detected"`
	Reason   string               `json:"reason,omitempty"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.GetMaxUploadBytes())
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	g, err := s.loadRequestGrid(&req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	params := s.cfg.Params()
	if req.Params != nil {
		if err := req.Params.Validate(); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid params: %v", err))
			return
		}
		applyOverrides(&params, req.Params)
	}

	res, err := particle.Run(g, params)
	if err != nil {
		degenerate := errors.Is(err, particle.ErrInsufficientBackground) ||
			errors.Is(err, particle.ErrEmptyCandidateSet)
		switch {
		case degenerate && req.Lenient:
			httputil.WriteJSONOK(w, DetectResponse{Detected: 0, Reason: err.Error()})
		case degenerate:
			httputil.UnprocessableEntity(w, err.Error())
		default:
			httputil.BadRequest(w, err.Error())
		}
		return
	}

	run, err := s.store.SaveRun(req.Source, g, params, res)
	if err != nil {
		logf("save run failed: %v", err)
		httputil.InternalServerError(w, "failed to persist run")
		return
	}

	httputil.WriteJSONOK(w, DetectResponse{
		Run:      run,
		Accepted: res.Accepted,
		Detected: len(res.Accepted),
	})
}

// loadRequestGrid materialises the request grid from inline rows or an
// image path under the configured image directory, applying the
// requested crop.
func (s *Server) loadRequestGrid(req *DetectRequest) (*particle.Grid, error) {
	var g *particle.Grid
	var err error
	switch {
	case len(req.Grid) > 0 && req.ImagePath != "":
		return nil, errors.New("grid and image_path are mutually exclusive")
	case len(req.Grid) > 0:
		g, err = particle.GridFromRows(req.Grid)
		if err != nil {
			return nil, fmt.Errorf("invalid grid: %w", err)
		}
	case req.ImagePath != "":
		if err := security.ValidatePathWithinDirectory(req.ImagePath, s.cfg.GetImageDir()); err != nil {
			return nil, fmt.Errorf("image_path rejected: %w", err)
		}
		g, err = imgio.Load(req.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("load image: %w", err)
		}
	default:
		return nil, errors.New("one of grid or image_path is required")
	}

	if req.Crop != nil && !req.Crop.IsZero() {
		g, err = imgio.Crop(g, *req.Crop)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// applyOverrides copies the set fields of a partial config onto params.
func applyOverrides(params *particle.Params, o *config.TuningConfig) {
	if o.WindowSize != nil {
		params.WindowSize = *o.WindowSize
	}
	if o.ThreshCoef != nil {
		params.ThreshCoef = *o.ThreshCoef
	}
	if o.Percentile != nil {
		params.Percentile = *o.Percentile
	}
}
