package middleware

import (
	"time"

	"daresni/services/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records the duration and status of every request.
func Metrics(m *metrics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
