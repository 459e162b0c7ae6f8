package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GinLogger replaces gin.Logger with structured request logging. Level is
// driven by the response status.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		clientIP := c.ClientIP()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			logger.WithIP(clientIP),
			logger.WithStatus(status),
			zap.Int("response_size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
		}
		if requestID := c.GetString("request_id"); requestID != "" {
			fields = append(fields, logger.WithRequestID(requestID))
		}
		if span := trace.SpanContextFromContext(c.Request.Context()); span.HasTraceID() {
			fields = append(fields, zap.String("trace_id", span.TraceID().String()))
		}

		switch {
		case status >= 500:
			logger.Log.Error("HTTP request", fields...)
		case status >= 400:
			logger.Log.Warn("HTTP request", fields...)
		default:
			logger.Log.Info("HTTP request", fields...)
		}
	}
}
