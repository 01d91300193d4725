package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"subleet-admin/internal/pkg/metrics"
)

// MetricsMiddleware 按路由模板统计, 避免 id 撑爆标签
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
