package middleware

import (
	"strconv"
	"time"

	"github.com/chatrizz/backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per route. The route label uses
// the matched pattern (e.g. /api/v1/chats/:id), not the raw path, to keep
// label cardinality bounded.
func Metrics() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
