package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPRecorder observes one served request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics records request counts and latency per route. The route template
// (not the raw URL) is used as the path label to keep cardinality bounded.
func Metrics(recorder HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		recorder.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
