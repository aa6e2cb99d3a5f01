package redisserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/minikv/internal/telemetry/metric"
)

// scrapeMetrics returns the Prometheus text exposition of reg.
func scrapeMetrics(t *testing.T, reg *metric.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	return rec.Body.String()
}
