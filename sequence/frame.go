package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// FrameContext holds the single active scope of a session: the top-level
// document or one frame inside it. Entering a frame replaces the active
// scope; frames are never stacked.
type FrameContext struct {
	drv     Driver
	res     *Resolver
	logger  *slog.Logger
	scope   Scope
	entered *Candidate
}

// NewFrameContext starts at the top-level document.
func NewFrameContext(drv Driver, res *Resolver, logger *slog.Logger) *FrameContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameContext{drv: drv, res: res, logger: logger, scope: drv.Top()}
}

// Current returns the active scope.
func (f *FrameContext) Current() Scope { return f.scope }

// Entered returns the candidate of the active frame, or nil at top level.
func (f *FrameContext) Entered() *Candidate { return f.entered }

// Reset returns to the top-level document.
func (f *FrameContext) Reset() {
	f.scope = f.drv.Top()
	f.entered = nil
}

// Enter looks up a frame element from the top-level document and makes the
// frame the active scope. A candidate that matches an element the driver
// cannot enter counts as a miss and the next candidate is tried.
//
// On failure the context falls back to the top-level document and returns a
// *ScopeEntryError; callers may continue against that scope.
func (f *FrameContext) Enter(ctx context.Context, cands []Candidate, timeout time.Duration) (*Match, error) {
	top := f.drv.Top()

	var attempts []Attempt
	var cause error
	offset := 0
	rest := cands
	for len(rest) > 0 {
		m, err := f.res.Resolve(ctx, rest, top, timeout)
		if err != nil {
			nf := &NotFoundError{Attempts: append(attempts, attemptsOf(err)...)}
			var inner *NotFoundError
			if errors.As(err, &inner) {
				nf.Err = inner.Err
			}
			cause = nf
			break
		}

		last := m.Attempts[len(m.Attempts)-1]
		attempts = append(attempts, m.Attempts[:len(m.Attempts)-1]...)

		scope, ferr := f.drv.EnterFrame(ctx, m.Element)
		if ferr == nil {
			c := m.Candidate
			f.scope = scope
			f.entered = &c
			m.Index += offset
			m.Attempts = append(attempts, last)
			f.logger.Info("sequence: frame entered", "candidate", c.Name(), "scope", scope.ScopeName())
			return m, nil
		}

		attempts = append(attempts, newAttempt(m.Candidate, fmt.Errorf("enter frame: %w", ferr), last.Elapsed))
		offset += m.Index + 1
		rest = rest[m.Index+1:]
	}
	if cause == nil {
		cause = &NotFoundError{Attempts: attempts}
	}

	f.Reset()
	f.logger.Warn("sequence: no frame candidate resolved, continuing in top-level document",
		"error", cause)
	return nil, &ScopeEntryError{Cause: cause}
}
