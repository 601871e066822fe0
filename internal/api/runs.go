package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gomesfin/puncta/internal/httputil"
	"github.com/gomesfin/puncta/internal/particle"
	"github.com/gomesfin/puncta/internal/particle/render"
	"github.com/gomesfin/puncta/internal/particle/store"
	"github.com/gomesfin/puncta/internal/security"
)

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		logf("list runs failed: %v", err)
		httputil.InternalServerError(w, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.store.DeleteRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		logf("delete run %s failed: %v", id, err)
		httputil.InternalServerError(w, "failed to delete run")
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"deleted": id})
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	acceptedOnly := r.URL.Query().Get("accepted") == "1"
	cands, err := s.store.CandidatesForRun(run.ID, acceptedOnly)
	if err != nil {
		logf("candidates for run %s failed: %v", run.ID, err)
		httputil.InternalServerError(w, "failed to load candidates")
		return
	}
	if cands == nil {
		cands = []particle.Candidate{}
	}

	if r.URL.Query().Get("format") == "csv" {
		name := fmt.Sprintf("candidates-%s.csv", security.SanitizeFilename(run.ID))
		httputil.SetCSVAttachment(w, name)
		if err := render.WriteCandidatesCSV(w, cands, run.Threshold); err != nil {
			logf("stream candidate csv for run %s failed: %v", run.ID, err)
		}
		return
	}
	httputil.WriteJSONOK(w, cands)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	cands, err := s.store.CandidatesForRun(run.ID, false)
	if err != nil {
		logf("candidates for run %s failed: %v", run.ID, err)
		httputil.InternalServerError(w, "failed to load candidates")
		return
	}
	res := &particle.Result{
		Candidates: cands,
		Threshold:  run.Threshold,
		Background: run.Background,
	}
	for _, c := range cands {
		if c.Score > run.Threshold {
			res.Accepted = append(res.Accepted, c)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.RenderReport(w, res, run.Source); err != nil {
		logf("render report for run %s failed: %v", run.ID, err)
	}
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	g, err := s.store.GridForRun(run.ID)
	if err != nil {
		logf("grid for run %s failed: %v", run.ID, err)
		httputil.InternalServerError(w, "failed to load run grid")
		return
	}
	accepted, err := s.store.CandidatesForRun(run.ID, true)
	if err != nil {
		logf("candidates for run %s failed: %v", run.ID, err)
		httputil.InternalServerError(w, "failed to load candidates")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.WriteOverlayPNG(w, g, accepted); err != nil {
		logf("render overlay for run %s failed: %v", run.ID, err)
	}
}

// lookupRun resolves the {id} path segment, writing the error response
// itself when the run does not exist.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	id := r.PathValue("id")
	run, err := s.store.GetRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return nil, false
	}
	if err != nil {
		logf("get run %s failed: %v", id, err)
		httputil.InternalServerError(w, "failed to load run")
		return nil, false
	}
	return run, true
}
