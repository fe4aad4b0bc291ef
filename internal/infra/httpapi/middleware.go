package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aigate/internal/domain"
	"aigate/internal/infra/telemetry"
)

// requestMeta attaches a request id to the request context and echoes it in
// the response. A usable caller-supplied x-request-id is kept.
func requestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, meta := telemetry.EnsureRequestMeta(c.Request.Context(), telemetry.RequestIDFromHeader(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Header(telemetry.RequestIDHeader, meta.RequestID)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			telemetry.EventField(telemetry.EventHTTPRequest),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("code", status),
			telemetry.DurationField(time.Since(start)),
		}
		if err := c.Errors.Last(); err != nil {
			fields = append(fields, zap.Error(err.Err))
		}
		reqLogger := telemetry.LoggerWithRequest(c.Request.Context(), logger)
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Warn("request failed", fields...)
		default:
			reqLogger.Debug("request served", fields...)
		}
	}
}

// recovery turns a handler panic into an INTERNAL error response.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.LoggerWithRequest(c.Request.Context(), logger).Error("handler panic",
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				writeError(c, domain.E(domain.CodeInternal, "", "internal error", fmt.Errorf("panic: %v", rec)))
			}
		}()
		c.Next()
	}
}
