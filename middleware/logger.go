package middleware

import (
	"time"

	"daresni/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and stores a request-scoped logger
// in the context.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With(zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path))
		c.Set(utils.ContextLoggerKey, reqLogger)

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id, ok := CurrentIdentity(c); ok {
			fields = append(fields, zap.String("uid", id.UID), zap.String("role", string(id.Role)))
		}
		switch {
		case c.Writer.Status() >= 500:
			reqLogger.Error("Request completed", fields...)
		case c.Writer.Status() >= 400:
			reqLogger.Warn("Request completed", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}
