package testutil

import (
	"errors"
	"net/http"
	"testing"
)

func TestAssertHelpers(t *testing.T) {
	// The failure paths call t.Errorf/t.Fatalf and cannot be exercised
	// without a fake testing.T; the success paths at least must not
	// misfire.
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertNoError(t, nil)
	AssertError(t, errors.New("boom"))
}

func TestDecodeJSON(t *testing.T) {
	rec := NewTestRecorder()
	rec.Body.WriteString(`{"detected": 2}`)

	var resp struct {
		Detected int `json:"detected"`
	}
	DecodeJSON(t, rec, &resp)
	if resp.Detected != 2 {
		t.Errorf("detected = %d, want 2", resp.Detected)
	}
}

func TestNewTestRequest(t *testing.T) {
	req := NewTestRequest(http.MethodGet, "/runs")
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/runs" {
		t.Errorf("path = %s, want /runs", req.URL.Path)
	}
}
