package middleware

import (
	"time"

	"blog-service/internal/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Logging writes one line per request. Paths in skip are not logged.
func Logging(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, ok := skipped[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client":     c.ClientIP(),
			"request_id": RequestIDFrom(c),
		}
		if id, ok := UserIDFromContext(c.Request.Context()); ok {
			fields["user_id"] = id
		}
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
		}

		switch {
		case status >= 500:
			logger.Error("http request", fields)
		case status >= 400:
			logger.Warn("http request", fields)
		default:
			logger.Info("http request", fields)
		}
	}
}
