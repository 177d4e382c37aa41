package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ResolverConfig controls how the step timeout is spent across candidates.
type ResolverConfig struct {
	// PerCandidate, when positive, gives every candidate this fixed slice
	// and ignores the step timeout.
	PerCandidate time.Duration

	// MinSlice floors the even split of the step timeout. Default: 500ms.
	MinSlice time.Duration

	// PollInterval is the pause between two Find calls on the same
	// candidate. Default: 200ms.
	PollInterval time.Duration

	Logger *slog.Logger
}

func (c *ResolverConfig) defaults() {
	if c.MinSlice <= 0 {
		c.MinSlice = 500 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Match is a successful resolution.
type Match struct {
	Element   Element
	Candidate Candidate
	// Index is the position of Candidate in the list that was resolved.
	Index    int
	Attempts []Attempt
}

// Resolver locates one logical target from an ordered candidate list. It
// holds no state between calls.
type Resolver struct {
	drv Driver
	cfg ResolverConfig
}

// NewResolver creates a Resolver over drv.
func NewResolver(drv Driver, cfg ResolverConfig) *Resolver {
	cfg.defaults()
	return &Resolver{drv: drv, cfg: cfg}
}

// Slice returns the time budget of one candidate when n candidates share
// timeout.
func (r *Resolver) Slice(timeout time.Duration, n int) time.Duration {
	if r.cfg.PerCandidate > 0 {
		return r.cfg.PerCandidate
	}
	if n <= 0 {
		n = 1
	}
	s := timeout / time.Duration(n)
	if s < r.cfg.MinSlice {
		s = r.cfg.MinSlice
	}
	return s
}

// Resolve tries candidates in order and returns the first one that matches
// in scope. Remaining candidates are not tried. When nothing matches the
// error is a *NotFoundError listing every attempt.
func (r *Resolver) Resolve(ctx context.Context, cands []Candidate, scope Scope, timeout time.Duration) (*Match, error) {
	return r.resolveSlice(ctx, cands, scope, r.Slice(timeout, len(cands)))
}

// exactSlice splits timeout evenly over n candidates with no floor.
func exactSlice(timeout time.Duration, n int) time.Duration {
	if n <= 0 {
		n = 1
	}
	return timeout / time.Duration(n)
}

// resolveSlice is Resolve with every candidate polled for exactly slice.
func (r *Resolver) resolveSlice(ctx context.Context, cands []Candidate, scope Scope, slice time.Duration) (*Match, error) {
	if len(cands) == 0 {
		return nil, &NotFoundError{Err: errors.New("empty candidate list")}
	}
	attempts := make([]Attempt, 0, len(cands))

	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			return nil, &NotFoundError{Attempts: attempts, Err: err}
		}

		start := time.Now()
		el, err := r.poll(ctx, scope, c, slice)
		elapsed := time.Since(start)
		if err == nil {
			attempts = append(attempts, newAttempt(c, nil, elapsed))
			r.cfg.Logger.Debug("sequence: candidate matched",
				"candidate", c.Name(), "index", i, "scope", scopeName(scope), "elapsed", elapsed)
			return &Match{Element: el, Candidate: c, Index: i, Attempts: attempts}, nil
		}

		attempts = append(attempts, newAttempt(c, err, elapsed))
		r.cfg.Logger.Debug("sequence: candidate missed",
			"candidate", c.Name(), "index", i, "error", err)

		if ctx.Err() != nil {
			return nil, &NotFoundError{Attempts: attempts, Err: ctx.Err()}
		}
	}
	return nil, &NotFoundError{Attempts: attempts}
}

// poll calls Find until it matches or slice elapses.
func (r *Resolver) poll(ctx context.Context, scope Scope, c Candidate, slice time.Duration) (Element, error) {
	pctx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	var last error
	for {
		el, err := r.drv.Find(pctx, scope, c)
		if err == nil && el != nil {
			return el, nil
		}
		if err == nil {
			err = ErrNoMatch
		}
		last = err

		if werr := wait(pctx, r.cfg.PollInterval); werr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(last, ErrNoMatch) || errors.Is(last, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w within %s", ErrNoMatch, slice)
			}
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, slice, last)
		}
	}
}

// wait blocks for d or until ctx ends.
func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func scopeName(s Scope) string {
	if s == nil {
		return "none"
	}
	return s.ScopeName()
}
