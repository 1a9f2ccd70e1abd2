package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
)

func TestHooksRecorderSortsOutcomesByCode(t *testing.T) {
	h := &HooksRecorder{}
	h.AfterWrite(aggregates.WriteOutcome{Op: "Course.Update", Attempt: 1, Code: domainagg.CodeRetryable, Duration: time.Millisecond})
	h.AfterWrite(aggregates.WriteOutcome{Op: "Course.Update", Attempt: 2})
	h.AfterWrite(aggregates.WriteOutcome{Op: "Course.Submit", Attempt: 1, Code: domainagg.CodeConflict})

	assert.Equal(t, []string{"retryable", "success", "conflict"}, h.Statuses())
	assert.Equal(t, []string{"Course.Update"}, h.Retries)
	assert.Equal(t, []string{"Course.Submit"}, h.Conflicts)
	assert.Equal(t, 2, h.Operations[1].Attempt)
	assert.Equal(t, time.Millisecond, h.Operations[0].Duration)
}
