package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	globalMetrics.mu.Lock()
	before := globalMetrics.RequestCount
	beforeErrs := globalMetrics.ErrorCount
	globalMetrics.mu.Unlock()

	for _, path := range []string{"/ok", "/ok", "/bad"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()
	if got := globalMetrics.RequestCount - before; got != 3 {
		t.Errorf("Expected 3 requests counted, got %d", got)
	}
	if got := globalMetrics.ErrorCount - beforeErrs; got != 1 {
		t.Errorf("Expected 1 error counted, got %d", got)
	}
}

func TestHealthHandlerReportsUnhealthyCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	RegisterHealthCheck("always-ok", func(ctx context.Context) error { return nil })
	RegisterHealthCheck("always-down", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	defer func() {
		globalHealthChecker.mu.Lock()
		delete(globalHealthChecker.checks, "always-ok")
		delete(globalHealthChecker.checks, "always-down")
		globalHealthChecker.mu.Unlock()
	}()

	r := gin.New()
	r.GET("/health", HealthHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestMetricsHandlerReportsGauges(t *testing.T) {
	gin.SetMode(gin.TestMode)

	RegisterGauge("queue_depth", func(ctx context.Context) (int64, error) { return 7, nil })
	RegisterGauge("broken", func(ctx context.Context) (int64, error) {
		return 0, errors.New("connection refused")
	})
	defer func() {
		globalGauges.mu.Lock()
		delete(globalGauges.fns, "queue_depth")
		delete(globalGauges.fns, "broken")
		globalGauges.mu.Unlock()
	}()

	r := gin.New()
	r.GET("/metrics", MetricsHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Gauges map[string]int64 `json:"gauges"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to unmarshal metrics: %v", err)
	}
	if body.Gauges["queue_depth"] != 7 {
		t.Errorf("Expected gauge queue_depth 7, got %d", body.Gauges["queue_depth"])
	}
	if _, ok := body.Gauges["broken"]; ok {
		t.Error("Expected failing gauge to be omitted, not reported as zero")
	}
}

func TestRunHealthChecksExecutesProbe(t *testing.T) {
	ran := false
	RegisterHealthCheck("probe", func(ctx context.Context) error {
		ran = true
		return nil
	})
	defer func() {
		globalHealthChecker.mu.Lock()
		delete(globalHealthChecker.checks, "probe")
		globalHealthChecker.mu.Unlock()
	}()

	results := RunHealthChecks()
	if !ran {
		t.Error("Expected health check function to run")
	}
	if results["probe"].Status != "healthy" {
		t.Errorf("Expected healthy status, got %s", results["probe"].Status)
	}
}
