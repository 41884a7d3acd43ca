package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func serveProbe(t *testing.T, h *Handler, handler http.HandlerFunc, path string) (*httptest.ResponseRecorder, result) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec, body
}

func TestHealthz_AlwaysOK(t *testing.T) {
	h := New()
	rec, body := serveProbe(t, h, h.Healthz, "/healthz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyz_AllChecksPass(t *testing.T) {
	h := New(
		Database(nil),
		Checker{Name: "exports", Check: func(context.Context) error { return nil }},
	)
	rec, body := serveProbe(t, h, h.Readyz, "/readyz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body.Checks["database"] != "ok" || body.Checks["exports"] != "ok" {
		t.Errorf("checks = %v, want all ok", body.Checks)
	}
}

func TestReadyz_FailingStoreReports503(t *testing.T) {
	h := New(
		Database(func(context.Context) error { return errors.New("connection refused") }),
		Checker{Name: "exports", Check: func(context.Context) error { return nil }},
	)
	rec, body := serveProbe(t, h, h.Readyz, "/readyz")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if body.Status != "fail" {
		t.Errorf("status = %q, want fail", body.Status)
	}
	if body.Checks["database"] != "fail: connection refused" {
		t.Errorf("database check = %q", body.Checks["database"])
	}
	// One failing dependency must not mask a healthy one.
	if body.Checks["exports"] != "ok" {
		t.Errorf("exports check = %q, want ok", body.Checks["exports"])
	}
}

func TestReadyz_NoChecks(t *testing.T) {
	h := New()
	rec, body := serveProbe(t, h, h.Readyz, "/readyz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}

func TestReadyz_RunsChecksConcurrently(t *testing.T) {
	// Each check releases the barrier and then waits for the other. The
	// rendezvous only completes when both run at the same time.
	var wg sync.WaitGroup
	wg.Add(2)
	rendezvous := func(ctx context.Context) error {
		wg.Done()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h := New(
		Checker{Name: "database", Check: rendezvous},
		Checker{Name: "exports", Check: rendezvous},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (checks did not overlap)", rec.Code, http.StatusOK)
	}
}

func TestReadyz_CancelledRequest(t *testing.T) {
	h := New(Checker{Name: "database", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestDatabaseChecker(t *testing.T) {
	if err := Database(nil).Check(context.Background()); err != nil {
		t.Errorf("nil ping should always be ready, got %v", err)
	}

	boom := errors.New("connection refused")
	err := Database(func(context.Context) error { return boom }).Check(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
