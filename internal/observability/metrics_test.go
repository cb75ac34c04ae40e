package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetricsHandler verifies that the registry serves the module's metrics
// and that counters can be incremented without panicking.
func TestMetricsHandler(t *testing.T) {
	CacheHitsTotal.Inc()
	CacheMissesTotal.Inc()
	WeatherAPICallsTotal.WithLabelValues("success").Inc()
	PollingSweepsTotal.Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	MetricsHandler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("metrics endpoint status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{"cacheHitsTotal", "weatherApiCallsTotal", "pollingSweepsTotal"} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}
