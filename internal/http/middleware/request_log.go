package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storyfeed-backend/internal/platform/ctxutil"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Probe paths log at debug so
// liveness checks do not drown the feed traffic.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := append([]interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}, ctxutil.LogFields(ctx)...)
		if ad := ctxutil.GetAuthData(ctx); ad != nil {
			fields = append(fields, "role", ad.Role)
			if ad.Subject != "" {
				fields = append(fields, "user_id", ad.Subject)
			}
		}
		if dev := c.GetHeader(headerDeviceID); dev != "" {
			fields = append(fields, "device_id", dev)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case probePaths[c.Request.URL.Path]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
