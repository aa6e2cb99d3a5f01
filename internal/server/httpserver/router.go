package httpserver

import (
	"log/slog"
	"net/http"
)

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	// Metrics serves the exposition format. Nil leaves the route unregistered.
	Metrics     http.Handler
	MetricsPath string

	// AuthToken, when set, is required as a Bearer token on the metrics route.
	AuthToken string

	// Ready reports whether the RESP server is accepting connections.
	// Nil means always ready.
	Ready func() bool

	Logger *slog.Logger
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MetricsPath: "/metrics",
	}
}

// NewRouter creates the admin HTTP handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultRouterConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{ready: cfg.Ready, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.readiness)
	mux.HandleFunc("GET /version", h.version)

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, MetricsAuth(cfg.AuthToken)(cfg.Metrics))
	}

	return Chain(mux,
		RequestID(),
		Recover(logger),
		AccessLog(logger),
	)
}
