package monitoring

import (
	"context"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu            sync.RWMutex
	RequestCount  int64            `json:"request_count"`
	ErrorCount    int64            `json:"error_count"`
	StatusCodes   map[string]int64 `json:"status_codes"`
	Endpoints     map[string]int64 `json:"endpoint_calls"`
	StartTime     time.Time        `json:"start_time"`
	LastRequest   time.Time        `json:"last_request"`
	totalDuration time.Duration
}

type HealthCheckFunc func(ctx context.Context) error

// GaugeFunc samples one numeric value at scrape time, such as a queue depth.
type GaugeFunc func(ctx context.Context) (int64, error)

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type healthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheckFunc
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

var globalHealthChecker = &healthChecker{
	checks: make(map[string]HealthCheckFunc),
}

var globalGauges = struct {
	mu  sync.RWMutex
	fns map[string]GaugeFunc
}{fns: make(map[string]GaugeFunc)}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()

		globalMetrics.mu.Lock()
		globalMetrics.RequestCount++
		globalMetrics.totalDuration += duration
		globalMetrics.LastRequest = time.Now()
		if statusCode >= 400 {
			globalMetrics.ErrorCount++
		}
		globalMetrics.StatusCodes[http.StatusText(statusCode)]++
		globalMetrics.Endpoints[endpoint]++
		globalMetrics.mu.Unlock()
	}
}

// RegisterHealthCheck stores a named probe; the probe runs on every call of
// the health endpoint, not at registration time.
func RegisterHealthCheck(name string, checkFunc HealthCheckFunc) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = checkFunc
}

// RegisterGauge stores a named sampler; it is evaluated on every call of the
// metrics endpoint.
func RegisterGauge(name string, fn GaugeFunc) {
	globalGauges.mu.Lock()
	defer globalGauges.mu.Unlock()
	globalGauges.fns[name] = fn
}

func sampleGauges(ctx context.Context) map[string]int64 {
	globalGauges.mu.RLock()
	fns := make(map[string]GaugeFunc, len(globalGauges.fns))
	for name, fn := range globalGauges.fns {
		fns[name] = fn
	}
	globalGauges.mu.RUnlock()

	values := make(map[string]int64, len(fns))
	for name, fn := range fns {
		sampleCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		value, err := fn(sampleCtx)
		cancel()
		if err != nil {
			log.Printf("Failed to sample gauge %s: %v", name, err)
			continue
		}
		values[name] = value
	}
	return values
}

func RunHealthChecks() map[string]HealthCheck {
	globalHealthChecker.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(globalHealthChecker.checks))
	for name, fn := range globalHealthChecker.checks {
		checks[name] = fn
	}
	globalHealthChecker.mu.RUnlock()

	results := make(map[string]HealthCheck, len(checks))
	for name, fn := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		check := HealthCheck{Name: name, Status: "healthy", LastRun: time.Now()}
		if err := fn(ctx); err != nil {
			check.Status = "unhealthy"
			check.Message = err.Error()
		}
		cancel()
		results[name] = check
	}
	return results
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		globalMetrics.mu.RLock()
		avg := time.Duration(0)
		if globalMetrics.RequestCount > 0 {
			avg = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
		}
		app := gin.H{
			"request_count":           globalMetrics.RequestCount,
			"error_count":             globalMetrics.ErrorCount,
			"avg_request_duration_ms": avg.Milliseconds(),
			"status_codes":            copyCounts(globalMetrics.StatusCodes),
			"endpoint_calls":          copyCounts(globalMetrics.Endpoints),
			"last_request":            globalMetrics.LastRequest,
		}
		globalMetrics.mu.RUnlock()

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		c.JSON(http.StatusOK, gin.H{
			"application": app,
			"gauges":      sampleGauges(c.Request.Context()),
			"system": gin.H{
				"uptime":          time.Since(globalMetrics.StartTime).String(),
				"goroutine_count": runtime.NumGoroutine(),
				"alloc_mb":        mem.Alloc / 1024 / 1024,
				"go_version":      runtime.Version(),
			},
			"timestamp": time.Now(),
		})
	}
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := RunHealthChecks()

		overall := "healthy"
		for _, check := range checks {
			if check.Status != "healthy" {
				overall = "unhealthy"
				break
			}
		}

		status := http.StatusOK
		if overall != "healthy" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    checks,
			"uptime":    time.Since(globalMetrics.StartTime).String(),
			"timestamp": time.Now(),
		})
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
