package runner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestPistonRunnerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pistonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Language != "java" || req.Version != DefaultPistonVersion || len(req.Files) != 1 || req.Files[0].Name != "Main.java" {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"language":"java","version":"15.0.2","run":{"stdout":"Hello Javuy!\n","stderr":"","code":0}}`))
	}))
	defer srv.Close()

	r := NewPistonRunner(testLogger(t), PistonConfig{URL: srv.URL}, srv.Client())
	res, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java", Content: "class Main {}"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != "Hello Javuy!\n" || res.Error != "" || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPistonRunnerCompileError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"compile":{"stdout":"","stderr":"Main.java:3: error: ';' expected","code":1}}`))
	}))
	defer srv.Close()

	r := NewPistonRunner(testLogger(t), PistonConfig{URL: srv.URL}, srv.Client())
	res, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != "" || res.Error != "Main.java:3: error: ';' expected" || res.ExitCode != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPistonRunnerRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"run":{"stdout":"ok","stderr":"boom","code":1}}`))
	}))
	defer srv.Close()

	r := NewPistonRunner(testLogger(t), PistonConfig{URL: srv.URL, MaxRetries: 1}, srv.Client())
	res, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if res.Output != "ok" || res.Error != "boom" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPistonRunnerDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"runtime is unknown"}`))
	}))
	defer srv.Close()

	r := NewPistonRunner(testLogger(t), PistonConfig{URL: srv.URL, MaxRetries: 1}, srv.Client())
	_, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestPistonRunnerMissingRunStage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	r := NewPistonRunner(testLogger(t), PistonConfig{URL: srv.URL}, srv.Client())
	if _, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}}); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestPistonRunnerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := NewPistonRunner(testLogger(t), PistonConfig{URL: url}, nil)
	if _, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}}); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}
