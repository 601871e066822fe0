// Package store persists detection runs and their candidate tables in a
// local sqlite database. Schema is managed by embedded golang-migrate
// migrations; run IDs are UUIDs.
package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gomesfin/puncta/internal/monitoring"
	"github.com/gomesfin/puncta/internal/particle"
	"github.com/gomesfin/puncta/internal/timeutil"
)

// ErrRunNotFound reports an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

var logf = monitoring.Component("Store")

// Store wraps the runs database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Run is the persisted summary of one detection pass.
type Run struct {
	ID             string                   `json:"id"`
	Source         string                   `json:"source"`
	Params         particle.Params          `json:"params"`
	Threshold      float64                  `json:"threshold"`
	Background     particle.BackgroundStats `json:"background"`
	CandidateCount int                      `json:"candidate_count"`
	AcceptedCount  int                      `json:"accepted_count"`
	GridWidth      int                      `json:"grid_width"`
	GridHeight     int                      `json:"grid_height"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Open opens (creating if needed) the sqlite database at path and brings
// the schema up to date.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injected clock, for tests that pin run
// timestamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open runs db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{db: db, clock: clock}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a run summary, its full candidate table and the source
// grid in one transaction, and returns the persisted run.
func (s *Store) SaveRun(source string, g *particle.Grid, params particle.Params, res *particle.Result) (*Run, error) {
	run := &Run{
		ID:             uuid.NewString(),
		Source:         source,
		Params:         params,
		Threshold:      res.Threshold,
		Background:     res.Background,
		CandidateCount: len(res.Candidates),
		AcceptedCount:  len(res.Accepted),
		GridWidth:      g.Width,
		GridHeight:     g.Height,
		CreatedAt:      s.clock.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO detection_runs (
			id, source, window_size, thresh_coef, percentile, threshold,
			background_mean, background_sd, background_pixels,
			candidate_count, accepted_count, grid_width, grid_height,
			grid_blob, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, params.WindowSize, params.ThreshCoef, params.Percentile,
		run.Threshold, run.Background.Mean, run.Background.StdDev, run.Background.Pixels,
		run.CandidateCount, run.AcceptedCount, g.Width, g.Height,
		encodeGrid(g), run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO detection_candidates (
			run_id, x, y, intensity, hessian, local_mean, score,
			significance, is_significant, accepted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare candidate insert: %w", err)
	}
	defer stmt.Close()
	for _, c := range res.Candidates {
		accepted := c.Score > res.Threshold
		if _, err := stmt.Exec(run.ID, c.X, c.Y, c.Intensity, c.Hessian, c.LocalMean,
			c.Score, c.Significance, c.IsSignificant, accepted); err != nil {
			return nil, fmt.Errorf("insert candidate (%d,%d): %w", c.X, c.Y, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	logf("saved run %s: source=%s candidates=%d accepted=%d", run.ID, source, run.CandidateCount, run.AcceptedCount)
	return run, nil
}

const runColumns = `id, source, window_size, thresh_coef, percentile, threshold,
	background_mean, background_sd, background_pixels,
	candidate_count, accepted_count, grid_width, grid_height, created_at`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var createdAt string
	err := row.Scan(&r.ID, &r.Source, &r.Params.WindowSize, &r.Params.ThreshCoef,
		&r.Params.Percentile, &r.Threshold, &r.Background.Mean, &r.Background.StdDev,
		&r.Background.Pixels, &r.CandidateCount, &r.AcceptedCount,
		&r.GridWidth, &r.GridHeight, &createdAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp: %w", err)
	}
	return &r, nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM detection_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// means no limit.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query("SELECT "+runColumns+" FROM detection_runs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CandidatesForRun returns the candidate table of a run, in insertion
// order. With acceptedOnly set, only candidates above the run threshold
// are returned.
func (s *Store) CandidatesForRun(id string, acceptedOnly bool) ([]particle.Candidate, error) {
	if _, err := s.GetRun(id); err != nil {
		return nil, err
	}
	q := `SELECT x, y, intensity, hessian, local_mean, score, significance, is_significant
		FROM detection_candidates WHERE run_id = ?`
	if acceptedOnly {
		q += " AND accepted"
	}
	rows, err := s.db.Query(q+" ORDER BY rowid", id)
	if err != nil {
		return nil, fmt.Errorf("candidates for run: %w", err)
	}
	defer rows.Close()

	var cands []particle.Candidate
	for rows.Next() {
		var c particle.Candidate
		if err := rows.Scan(&c.X, &c.Y, &c.Intensity, &c.Hessian, &c.LocalMean,
			&c.Score, &c.Significance, &c.IsSignificant); err != nil {
			return nil, fmt.Errorf("candidates for run: %w", err)
		}
		cands = append(cands, c)
	}
	return cands, rows.Err()
}

// GridForRun reconstructs the source grid persisted with a run.
func (s *Store) GridForRun(id string) (*particle.Grid, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT grid_blob FROM detection_runs WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("grid for run: %w", err)
	}
	g, err := decodeGrid(blob)
	if err != nil {
		return nil, fmt.Errorf("grid for run %s: %w", id, err)
	}
	return g, nil
}

// DeleteRun removes a run and (via cascade) its candidates.
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec("DELETE FROM detection_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// encodeGrid packs a grid as width, height and raw float64 bits, all
// little-endian.
func encodeGrid(g *particle.Grid) []byte {
	buf := make([]byte, 8+8*len(g.Cells))
	binary.LittleEndian.PutUint32(buf[0:], uint32(g.Width))
	binary.LittleEndian.PutUint32(buf[4:], uint32(g.Height))
	for i, v := range g.Cells {
		binary.LittleEndian.PutUint64(buf[8+8*i:], math.Float64bits(v))
	}
	return buf
}

// maxGridCells caps decoded grid sizes. Far beyond any real frame, and
// keeps the blob length arithmetic below from overflowing on corrupt
// dimension bytes.
const maxGridCells = 1 << 28

func decodeGrid(buf []byte) (*particle.Grid, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("grid blob too short: %d bytes", len(buf))
	}
	w := int(binary.LittleEndian.Uint32(buf[0:]))
	h := int(binary.LittleEndian.Uint32(buf[4:]))
	if w <= 0 || h <= 0 || w > maxGridCells || h > maxGridCells || w*h > maxGridCells {
		return nil, fmt.Errorf("grid blob claims implausible dimensions %dx%d", w, h)
	}
	if len(buf) != 8+8*w*h {
		return nil, fmt.Errorf("grid blob is %d bytes, want %d for %dx%d", len(buf), 8+8*w*h, w, h)
	}
	g, err := particle.NewGrid(w, h)
	if err != nil {
		return nil, err
	}
	for i := range g.Cells {
		g.Cells[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8+8*i:]))
	}
	return g, nil
}
