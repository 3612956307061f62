package middleware

import (
	"strconv"
	"time"

	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, logs it when it finishes and
// records its duration.
func RequestLogger(logger *logging.StructuredLogger, m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		if m != nil {
			m.RecordAPIRequest(route, c.Request.Method, strconv.Itoa(status), elapsed)
		}

		fields := logging.Fields{
			"method":      c.Request.Method,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		var lastErr error
		if e := c.Errors.Last(); e != nil {
			lastErr = e.Err
		}
		switch {
		case status >= 500:
			logger.Error(c.Request.Context(), "[HTTP] request failed", fields, lastErr)
		case status >= 400:
			logger.Warn(c.Request.Context(), "[HTTP] request rejected", fields)
		default:
			logger.Info(c.Request.Context(), "[HTTP] request served", fields)
		}
	}
}
