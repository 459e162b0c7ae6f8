package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/metrics"
)

// Metrics records Prometheus counters and latency histograms for every
// request. The route template is used as the path label so IDs and slugs do
// not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.ObserveHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
