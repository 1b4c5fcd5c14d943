package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 响应头
const RequestIDHeader = "X-Request-ID"

// RequestLogger 结构化请求日志，为每个请求分配 request id
// 认证中间件之后的处理器可以记录到当前用户 ID
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.String("request_id", requestID),
			slog.Group("request",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("client_ip", c.ClientIP()),
			),
			slog.Group("response",
				slog.Int("status", status),
				slog.Int("bytes", c.Writer.Size()),
				slog.String("latency", time.Since(start).String()),
			),
		}
		if id := GetCurrentUserID(c); id != uuid.Nil {
			attrs = append(attrs, slog.String("user_id", id.String()))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		if status >= 500 {
			logger.Error("server error", attrs...)
		} else {
			logger.Info("request completed", attrs...)
		}
	}
}
