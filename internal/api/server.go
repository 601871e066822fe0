// Package api implements the HTTP surface of the detection service:
// submitting detection runs, browsing persisted runs and candidate
// tables, and fetching rendered reports and overlays.
package api

import (
	"net/http"

	"github.com/gomesfin/puncta/internal/config"
	"github.com/gomesfin/puncta/internal/httputil"
	"github.com/gomesfin/puncta/internal/monitoring"
	"github.com/gomesfin/puncta/internal/particle/store"
	"github.com/gomesfin/puncta/internal/version"
)

var logf = monitoring.Component("API")

// Server holds the API dependencies.
type Server struct {
	store *store.Store
	cfg   *config.TuningConfig
}

// NewServer creates an API server over the runs store with the given
// tuning configuration.
func NewServer(st *store.Store, cfg *config.TuningConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Server{store: st, cfg: cfg}
}

// ServeMux returns the API routes. Callers mount it under /api.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /detect", s.handleDetect)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("GET /runs/{id}/candidates", s.handleCandidates)
	mux.HandleFunc("GET /runs/{id}/report", s.handleReport)
	mux.HandleFunc("GET /runs/{id}/overlay.png", s.handleOverlay)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", s.handleVersion)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}
