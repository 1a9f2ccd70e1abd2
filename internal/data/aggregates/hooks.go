package aggregates

import (
	"time"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/observability"
)

// WriteOutcome describes one transaction attempt of an aggregate write.
// Code is empty on success.
type WriteOutcome struct {
	Op       string
	Attempt  int
	Code     domainagg.ErrorCode
	Duration time.Duration
}

func (o WriteOutcome) Status() string {
	if o.Code == "" {
		return "success"
	}
	return string(o.Code)
}

type Hooks interface {
	AfterWrite(WriteOutcome)
}

// HooksFunc adapts a plain function to Hooks.
type HooksFunc func(WriteOutcome)

func (f HooksFunc) AfterWrite(o WriteOutcome) { f(o) }

type noopHooks struct{}

func (noopHooks) AfterWrite(WriteOutcome) {}

// NewObservabilityHooks reports write latency, conflicts and retries to
// metrics. A nil metrics sink yields no-op hooks.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return HooksFunc(func(o WriteOutcome) {
		metrics.ObserveAggregateOperation(o.Op, o.Status(), o.Duration)
		switch o.Code {
		case domainagg.CodeConflict:
			metrics.IncAggregateConflict(o.Op)
		case domainagg.CodeRetryable:
			metrics.IncAggregateRetry(o.Op)
		}
	})
}
