package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics(rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rec.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
