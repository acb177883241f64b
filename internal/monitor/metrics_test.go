package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMetricsValues(t *testing.T) {
	// Just verify we can use them
	PhaseTransitions.WithLabelValues("IDLE", "ARMING_TAKEOFF").Inc()
	FailsafeAborts.WithLabelValues("ALTITUDE_TOO_LOW").Inc()
	CommandRejections.Inc()
	CycleDuration.Observe(0.002)
}

func TestRouter_Status(t *testing.T) {
	router := NewRouter(func() any {
		return map[string]string{"phase": "TRANSITION_RAMP"}
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["phase"] != "TRANSITION_RAMP" {
		t.Errorf("phase = %q", body["phase"])
	}
}

func TestRouter_HealthzAndMetrics(t *testing.T) {
	router := NewRouter(func() any { return nil })

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status code = %d", path, rec.Code)
		}
	}
}
