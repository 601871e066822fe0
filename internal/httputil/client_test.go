package httputil

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStandardClientPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %s", ct)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"detected": 3}`))
	}))
	defer server.Close()

	client := NewStandardClient(nil)
	resp, err := client.Post(server.URL+"/api/detect", "application/json", strings.NewReader(`{"grid":[[0]]}`))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"detected": 3}` {
		t.Errorf("body = %q", string(body))
	}
}

func TestStandardClientWrapsCustom(t *testing.T) {
	custom := &http.Client{}
	if NewStandardClient(custom).Client != custom {
		t.Error("custom client not wrapped")
	}
}

func TestMockClientQueuedResponses(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"detected": 1}`)
	mock.AddResponse(http.StatusUnprocessableEntity, `{"error": "insufficient background"}`)

	resp, err := mock.Post("http://svc/api/detect", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("first status = %d", resp.StatusCode)
	}

	resp, err = mock.Post("http://svc/api/detect", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("second status = %d", resp.StatusCode)
	}

	if mock.RequestCount() != 2 {
		t.Errorf("recorded %d requests, want 2", mock.RequestCount())
	}
	if got := mock.Requests[0].Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("recorded content-type = %q", got)
	}
}

func TestMockClientErrors(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddErrorResponse(errors.New("connection refused"))
	if _, err := mock.Get("http://svc/api/runs"); err == nil {
		t.Error("expected queued transport error")
	}

	mock = NewMockHTTPClient()
	mock.DefaultError = errors.New("service down")
	if _, err := mock.Get("http://svc/api/runs"); err == nil {
		t.Error("expected default error")
	}
}

func TestMockClientDefaultResponse(t *testing.T) {
	mock := NewMockHTTPClient()
	resp, err := mock.Get("http://svc/api/healthz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
