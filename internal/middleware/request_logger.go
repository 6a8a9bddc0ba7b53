package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
)

const (
	// RequestIDHeader carries the request ID in and out
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// RequestID reuses the incoming X-Request-ID or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}

		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID stored by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Observability records Prometheus metrics and writes one access log line per request
func Observability(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		inFlight := reg.HTTPRequestsInFlight.WithLabelValues(route)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		reg.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		reg.HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(duration.Seconds())

		var sessionID string
		if session, ok := GetSession(c); ok {
			sessionID = session.ID
		}
		logger := logging.WithRequest(GetRequestID(c), sessionID, route)

		fields := []interface{}{
			"method", c.Request.Method,
			"status_code", status,
			"duration_ms", duration.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Errorw("HTTP request completed", fields...)
		case status >= 400:
			logger.Warnw("HTTP request completed", fields...)
		default:
			logger.Infow("HTTP request completed", fields...)
		}
	}
}
