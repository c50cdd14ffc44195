package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var body response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := decodeBody(t, rec); body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestReadyz_AllPass(t *testing.T) {
	t.Parallel()

	h := New([]Checker{
		{Name: "store", Check: func(_ context.Context) error { return nil }},
		{Name: "subtitles", Check: func(_ context.Context) error { return nil }},
	})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	for _, name := range []string{"store", "subtitles"} {
		if got := body.Checks[name].Status; got != "ok" {
			t.Errorf("%s check = %q, want %q", name, got, "ok")
		}
	}
}

func TestReadyz_FailingCheckerReportsError(t *testing.T) {
	t.Parallel()

	h := New([]Checker{
		{Name: "store", Check: func(_ context.Context) error {
			return errors.New("connection refused")
		}},
		{Name: "subtitles", Check: func(_ context.Context) error { return nil }},
	})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	body := decodeBody(t, rec)
	if body.Status != "fail" {
		t.Errorf("status = %q, want %q", body.Status, "fail")
	}
	store := body.Checks["store"]
	if store.Status != "fail" || store.Error != "connection refused" {
		t.Errorf("store check = %+v, want fail with connection refused", store)
	}
	if got := body.Checks["subtitles"].Status; got != "ok" {
		t.Errorf("subtitles check = %q, want %q", got, "ok")
	}
}

func TestReadyz_NoCheckers(t *testing.T) {
	t.Parallel()

	h := New(nil)
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyz_ReportsLatency(t *testing.T) {
	t.Parallel()

	h := New([]Checker{
		{Name: "slow", Check: func(_ context.Context) error {
			time.Sleep(15 * time.Millisecond)
			return nil
		}},
	})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if got := decodeBody(t, rec).Checks["slow"].LatencyMS; got < 10 {
		t.Errorf("latency_ms = %d, want >= 10", got)
	}
}

func TestReadyz_CheckTimeout(t *testing.T) {
	t.Parallel()

	h := New([]Checker{
		{Name: "hung", Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	}, WithCheckTimeout(10*time.Millisecond))

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if got := decodeBody(t, rec).Checks["hung"].Error; got != context.DeadlineExceeded.Error() {
		t.Errorf("error = %q, want deadline exceeded", got)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New([]Checker{
		{Name: "store", Check: func(_ context.Context) error { return nil }},
	}).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}
