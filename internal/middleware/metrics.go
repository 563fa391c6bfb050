package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/formworks/intake-api/internal/service"
)

// routeLabel keeps the path label bounded: matched requests use the
// registered route pattern, everything else collapses to one bucket so
// arbitrary request paths cannot mint new label values.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// Metrics records duration and status for every request that passes
// through it. A nil service disables collection.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}
