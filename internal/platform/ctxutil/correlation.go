package ctxutil

import "context"

type correlationKey struct{}

// Correlation ties log lines and responses back to one inbound request.
type Correlation struct {
	RequestID string
	TraceID   string
}

// Fields renders the non-empty IDs as logger key/value pairs.
func (c Correlation) Fields() []any {
	var out []any
	if c.RequestID != "" {
		out = append(out, "request_id", c.RequestID)
	}
	if c.TraceID != "" {
		out = append(out, "trace_id", c.TraceID)
	}
	return out
}

func WithCorrelation(ctx context.Context, c Correlation) context.Context {
	return context.WithValue(Default(ctx), correlationKey{}, c)
}

func CorrelationFrom(ctx context.Context) (Correlation, bool) {
	if ctx == nil {
		return Correlation{}, false
	}
	c, ok := ctx.Value(correlationKey{}).(Correlation)
	return c, ok
}
