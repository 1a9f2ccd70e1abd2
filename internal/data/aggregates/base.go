package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/yungbote/coursecraft-backend/internal/data/aggregates")

const defaultWriteAttempts = 3

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Guard  CourseGuard

	// MaxAttempts bounds how often a write is re-run after a retryable
	// failure such as a serialization error or a busy sqlite file.
	MaxAttempts int
	// Backoff is the pause before the second attempt; it doubles after that.
	Backoff time.Duration
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Guard.db == nil {
		d.Guard = NewCourseGuard(d.DB)
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = defaultWriteAttempts
	}
	if d.Backoff <= 0 {
		d.Backoff = 20 * time.Millisecond
	}
	return d
}

// executeWrite runs fn in a transaction, retrying retryable failures, and
// reports one outcome per attempt.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "Course.write"
	}
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	var mapped error
	backoff := deps.Backoff
	attempt := 1
	for ; ; attempt++ {
		start := time.Now()
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))
		deps.Hooks.AfterWrite(WriteOutcome{
			Op:       op,
			Attempt:  attempt,
			Code:     domainagg.CodeOf(mapped),
			Duration: time.Since(start),
		})
		if !domainagg.IsCode(mapped, domainagg.CodeRetryable) || attempt >= deps.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			mapped = MapError(op, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
			continue
		}
		break
	}

	status := outcomeStatus(mapped)
	span.SetAttributes(
		attribute.String("aggregate.status", status),
		attribute.Int("aggregate.attempts", attempt),
	)
	if mapped != nil {
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
		if deps.Log != nil && !expectedFailure(mapped) {
			deps.Log.Ctx(ctx).Warn("aggregate write failed", "op", op, "status", status, "attempts", attempt, "error", mapped)
		}
	}
	return mapped
}

func outcomeStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return "failure"
}

// expectedFailure reports caller-side outcomes that are not worth a warning.
func expectedFailure(err error) bool {
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation, domainagg.CodeNotFound, domainagg.CodeForbidden, domainagg.CodeInvalidState, domainagg.CodeConflict:
		return true
	}
	return false
}
