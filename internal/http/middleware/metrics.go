package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/internal/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			metrics.HTTPErrorsTotal.WithLabelValues(method, route, status).Inc()
		}
	}
}
