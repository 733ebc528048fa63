package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playhub/backend/internal/infrastructure/telemetry"
)

// ProfileLabels tags CPU and allocation samples with the matched route, so
// Pyroscope can split a flame graph by endpoint. Unmatched paths (404s) and
// infrastructure endpoints are not labelled.
func ProfileLabels() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" || route == "/metrics" || strings.HasPrefix(route, "/swagger") {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfileLabelRoute:  route,
			telemetry.ProfileLabelMethod: c.Request.Method,
			telemetry.ProfileLabelDomain: routeDomain(route),
		}
		telemetry.WithProfileLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// routeDomain is the first segment after the API version:
// "/api/v1/streams/:id/join" gives "streams".
func routeDomain(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return ""
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || strings.HasPrefix(parts[1], ":") {
		return ""
	}
	return parts[1]
}
