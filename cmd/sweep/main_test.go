package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomesfin/puncta/internal/httputil"
)

func TestParseCSVSlices(t *testing.T) {
	floats, err := parseCSVFloatSlice("0.9, 1.3,1.5")
	if err != nil || len(floats) != 3 || floats[1] != 1.3 {
		t.Errorf("parseCSVFloatSlice = %v, %v", floats, err)
	}
	ints, err := parseCSVIntSlice("1,3, 5")
	if err != nil || len(ints) != 3 || ints[2] != 5 {
		t.Errorf("parseCSVIntSlice = %v, %v", ints, err)
	}
	if _, err := parseCSVFloatSlice("1,x"); err == nil {
		t.Error("bad float accepted")
	}
	if _, err := parseCSVIntSlice("1,2.5"); err == nil {
		t.Error("bad int accepted")
	}
}

func TestSubmitDetection(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusOK,
		`{"run": {"id": "r1", "threshold": 0.5, "candidate_count": 9, "accepted_count": 2}, "detected": 2}`)

	fr := frame{name: "frame-000.csv", rows: [][]float64{{0, 1}, {2, 3}}}
	resp, err := submitDetection(mock, "http://svc", fr, 3, 1.3, 0.99)
	if err != nil {
		t.Fatalf("submitDetection: %v", err)
	}
	if resp.Run == nil || resp.Run.AcceptedCount != 2 || resp.Run.ID != "r1" {
		t.Fatalf("response = %+v", resp)
	}

	req := mock.Requests[0]
	if req.URL.String() != "http://svc/api/detect" {
		t.Errorf("url = %s", req.URL)
	}
	var sent detectRequest
	if err := json.NewDecoder(req.Body).Decode(&sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent.Source != "frame-000.csv" || !sent.Lenient {
		t.Errorf("sent = %+v", sent)
	}
	if sent.Params.WindowSize == nil || *sent.Params.WindowSize != 3 {
		t.Errorf("sent window size = %v", sent.Params.WindowSize)
	}
}

func TestSubmitDetectionDegenerate(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"run": null, "detected": 0, "reason": "insufficient background"}`)

	resp, err := submitDetection(mock, "http://svc", frame{rows: [][]float64{{0}}}, 3, 1.3, 0.99)
	if err != nil {
		t.Fatalf("submitDetection: %v", err)
	}
	if resp.Run != nil || resp.Reason == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestSubmitDetectionHTTPError(t *testing.T) {
	mock := httputil.NewMockHTTPClient()
	mock.AddResponse(http.StatusBadRequest, `{"error": "ragged grid"}`)

	if _, err := submitDetection(mock, "http://svc", frame{rows: [][]float64{{0}}}, 3, 1.3, 0.99); err == nil {
		t.Error("expected error for 400 response")
	}
}

func TestLoadFrames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("0,1\n2,3\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	frames, err := loadFrames(dir)
	if err != nil {
		t.Fatalf("loadFrames: %v", err)
	}
	if len(frames) != 1 || frames[0].name != "a.csv" {
		t.Fatalf("frames = %+v", frames)
	}
	if len(frames[0].rows) != 2 || frames[0].rows[1][1] != 3 {
		t.Errorf("rows = %v", frames[0].rows)
	}

	if _, err := loadFrames(t.TempDir()); err == nil {
		t.Error("empty dir accepted")
	}
}
