package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
)

const (
	headerRequestID = "X-Request-Id"
	headerTraceID   = "X-Trace-Id"
)

// Correlate stamps every request with a request ID and a trace ID, echoing
// both as response headers. A live otel span wins over an inbound trace
// header; anything missing is minted.
func Correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		corr := ctxutil.Correlation{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			TraceID:   spanTraceID(c.Request.Context()),
		}
		if corr.TraceID == "" {
			corr.TraceID = strings.TrimSpace(c.GetHeader(headerTraceID))
		}
		if corr.RequestID == "" {
			corr.RequestID = uuid.NewString()
		}
		if corr.TraceID == "" {
			corr.TraceID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithCorrelation(c.Request.Context(), corr))
		h := c.Writer.Header()
		h.Set(headerRequestID, corr.RequestID)
		h.Set(headerTraceID, corr.TraceID)
		c.Next()
	}
}

func spanTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Deadline caps how long a handler may run. Work that has to survive the
// response detaches with context.WithoutCancel.
func Deadline(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
