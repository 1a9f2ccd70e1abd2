package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
)

// HooksRecorder keeps every write outcome an aggregate reports. Conflicts
// and Retries hold the op names of attempts that ended with those codes.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Attempt  int
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) AfterWrite(o aggregates.WriteOutcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     o.Op,
		Status:   o.Status(),
		Attempt:  o.Attempt,
		Duration: o.Duration,
	})
	switch o.Code {
	case domainagg.CodeConflict:
		h.Conflicts = append(h.Conflicts, o.Op)
	case domainagg.CodeRetryable:
		h.Retries = append(h.Retries, o.Op)
	}
}

// Statuses lists the recorded statuses in order.
func (h *HooksRecorder) Statuses() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Operations))
	for i, op := range h.Operations {
		out[i] = op.Status
	}
	return out
}
