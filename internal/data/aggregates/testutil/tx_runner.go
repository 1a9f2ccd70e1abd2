package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

// InjectedTxRunner stands in for the gorm runner so tests can fail a write
// at the transaction boundary. fn runs without a transaction (dbc.Tx is nil),
// so repositories fall back to their own handle.
type InjectedTxRunner struct {
	mu sync.Mutex

	// FailBegin is returned before fn runs.
	FailBegin error
	// FailCommit is returned after fn succeeds, as if COMMIT was lost.
	FailCommit error
	// Attempts, when set, is consumed one entry per call; a non-nil entry
	// replaces fn's result for that call.
	Attempts []error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	var scripted error
	if len(r.Attempts) > 0 {
		scripted, r.Attempts = r.Attempts[0], r.Attempts[1:]
	}
	failBegin, failCommit := r.FailBegin, r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	var err error
	if fn != nil {
		err = fn(dbctx.Context{Ctx: ctx})
	}
	if err == nil {
		err = scripted
	}
	if err == nil {
		err = failCommit
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return err
	}
	r.CommitCalls++
	return nil
}
