package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()
	if cfg.MetricsPath != "/metrics" {
		t.Errorf("MetricsPath = %q", cfg.MetricsPath)
	}
}

func TestRouter_Health(t *testing.T) {
	h := NewRouter(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q", body["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRouter_Ready(t *testing.T) {
	var up atomic.Bool
	h := NewRouter(&RouterConfig{Ready: up.Load})

	get := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		return rec.Code
	}

	if code := get(); code != http.StatusServiceUnavailable {
		t.Errorf("before start: %d, want 503", code)
	}
	up.Store(true)
	if code := get(); code != http.StatusOK {
		t.Errorf("after start: %d, want 200", code)
	}
}

func TestRouter_Version(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info buildinfo.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.GoVersion == "" || info.Version == "" {
		t.Errorf("info = %+v", info)
	}
}

func TestRouter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "minikv_keys 3\n")
	})

	tests := []struct {
		name   string
		cfg    *RouterConfig
		path   string
		header string
		want   int
	}{
		{"no handler", &RouterConfig{}, "/metrics", "", http.StatusNotFound},
		{"default path", &RouterConfig{Metrics: metrics}, "/metrics", "", http.StatusOK},
		{"custom path", &RouterConfig{Metrics: metrics, MetricsPath: "/m"}, "/m", "", http.StatusOK},
		{"token required", &RouterConfig{Metrics: metrics, AuthToken: "t"}, "/metrics", "", http.StatusUnauthorized},
		{"token given", &RouterConfig{Metrics: metrics, AuthToken: "t"}, "/metrics", "Bearer t", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			NewRouter(tt.cfg).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && !strings.Contains(rec.Body.String(), "minikv_keys") {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

// ============================================================
// Server lifecycle
// ============================================================

func TestServer_StartShutdown(t *testing.T) {
	s := New("127.0.0.1:0", NewRouter(nil), nil)
	if s.Addr() != nil {
		t.Error("Addr before Start should be nil")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}

	if _, err := http.Get("http://" + s.Addr().String() + "/health"); err == nil {
		t.Error("server still serving after Shutdown")
	}
}

func TestServer_StartAddrInUse(t *testing.T) {
	a := New("127.0.0.1:0", NewRouter(nil), nil)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown(context.Background())

	b := New(a.Addr().String(), NewRouter(nil), nil)
	if err := b.Start(); err == nil {
		t.Error("expected listen error")
		_ = b.Shutdown(context.Background())
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := New("127.0.0.1:0", NewRouter(nil), nil)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
