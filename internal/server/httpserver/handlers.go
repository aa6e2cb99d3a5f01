package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

type handlers struct {
	ready  func() bool
	logger *slog.Logger
}

// health handles GET /health.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// readiness handles GET /ready.
func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	if h.ready != nil && !h.ready() {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]string{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// version handles GET /version.
func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error body with an X-Error-Code header.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
