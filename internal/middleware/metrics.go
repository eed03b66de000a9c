package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-import-api/internal/service"
)

// Metrics records latency and status of every request, plus the body size
// of multipart workbook uploads.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			metricsSvc.ObserveUpload(path, c.Request.ContentLength)
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
