package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics receives one observation per request
type HTTPMetrics interface {
	HTTPStarted() func()
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// HTTPMetricsConfig holds configuration for the HTTP metrics middleware
type HTTPMetricsConfig struct {
	Metrics HTTPMetrics
	// SkipPaths are not recorded (scrapes of /metrics itself, probes)
	SkipPaths []string
}

// DefaultHTTPMetricsConfig skips the health and metrics endpoints
func DefaultHTTPMetricsConfig(m HTTPMetrics) HTTPMetricsConfig {
	return HTTPMetricsConfig{
		Metrics:   m,
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// Metrics records request count, latency and in-flight requests by route template
func Metrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if cfg.Metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		done := cfg.Metrics.HTTPStarted()
		start := time.Now()
		c.Next()
		done()

		cfg.Metrics.ObserveHTTP(c.Request.Method, getRoutePattern(c), c.Writer.Status(), time.Since(start))
	}
}

// getRoutePattern returns the matched route ("/api/v1/streams/:id"), never the raw path
func getRoutePattern(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return ""
	}
	if strings.HasPrefix(route, "/swagger/") {
		return "/swagger/*any"
	}
	return route
}
