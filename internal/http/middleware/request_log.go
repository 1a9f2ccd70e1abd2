package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// AccessLog writes one line per request once the handler chain returns.
// 5xx logs at error, 4xx at warn.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", routeOf(c),
			"status", status,
			"latency_ms", time.Since(began).Milliseconds(),
			"bytes", c.Writer.Size(),
		}
		if corr, ok := ctxutil.CorrelationFrom(ctx); ok {
			kv = append(kv, corr.Fields()...)
		}
		if caller := ctxutil.GetRequestData(ctx); caller != nil && caller.UserID != uuid.Nil {
			kv = append(kv, "user_id", caller.UserID, "role", caller.Role)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			kv = append(kv, "errors", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("request", kv...)
		case status >= 400:
			log.Warn("request", kv...)
		default:
			log.Debug("request", kv...)
		}
	}
}

// routeOf prefers the registered pattern so IDs do not explode cardinality.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
