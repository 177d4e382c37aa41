package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Config configures a Sequencer.
type Config struct {
	Resolver ResolverConfig

	// StepTimeout is used by steps without their own Timeout. Default: 10s.
	StepTimeout time.Duration

	// PopupTimeout bounds the check of each overlay. Default: 1s.
	PopupTimeout time.Duration

	// CharDelay follows every typed character. Default: 30ms; negative
	// disables the delay.
	CharDelay time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.StepTimeout <= 0 {
		c.StepTimeout = 10 * time.Second
	}
	if c.PopupTimeout <= 0 {
		c.PopupTimeout = time.Second
	}
	if c.CharDelay < 0 {
		c.CharDelay = 0
	} else if c.CharDelay == 0 {
		c.CharDelay = 30 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Resolver.Logger == nil {
		c.Resolver.Logger = c.Logger
	}
}

// Sequencer runs a pipeline of steps against one browser session. A
// Sequencer may run several pipelines one after another, never two at once.
type Sequencer struct {
	drv    Driver
	cfg    Config
	res    *Resolver
	typist *Typist
	guard  *PopupGuard
	logger *slog.Logger
}

// New creates a Sequencer over drv.
func New(drv Driver, cfg Config) *Sequencer {
	cfg.defaults()
	res := NewResolver(drv, cfg.Resolver)
	return &Sequencer{
		drv:    drv,
		cfg:    cfg,
		res:    res,
		typist: NewTypist(drv),
		guard:  NewPopupGuard(drv, res, cfg.Logger),
		logger: cfg.Logger,
	}
}

// session is the mutable state of one run.
type session struct {
	frame *FrameContext
	log   []Outcome
	state State
}

// Run executes steps in order and always returns a report. The returned
// error equals report.Err and is non-nil only when the run was aborted:
// a *CriticalStepError for a failed fatal step, a validation error, or a
// context error when the run was cancelled between steps.
func (s *Sequencer) Run(ctx context.Context, steps []Step) (*Report, error) {
	start := time.Now()
	rep := &Report{State: StateInit, StartedAt: start}
	finish := func() (*Report, error) {
		rep.Elapsed = time.Since(start)
		return rep, rep.Err
	}

	if err := ValidateSteps(steps); err != nil {
		rep.abort(err)
		s.logger.Error("sequence: invalid pipeline", "error", err)
		return finish()
	}

	sess := &session{
		frame: NewFrameContext(s.drv, s.res, s.logger),
		state: StateInit,
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			rep.Outcomes = sess.log
			rep.abort(fmt.Errorf("sequence: cancelled before step %q: %w", st.Name, err))
			s.logger.Warn("sequence: run cancelled", "next_step", st.Name, "state", sess.state)
			return finish()
		}

		out := s.exec(ctx, sess, st)

		switch {
		case out.Success:
			sess.state = st.Milestone
		case errors.Is(out.Err, ErrScopeEntryFailed):
			// Degraded: the frame context already fell back to the top-level document.
			sess.state = st.Milestone
		case errors.Is(out.Err, ErrInterruptedInput):
			out.State = StateAborted
			sess.log = append(sess.log, out)
			rep.Outcomes = sess.log
			rep.abort(fmt.Errorf("sequence: cancelled during step %q: %w", st.Name, out.Err))
			s.logger.Warn("sequence: input interrupted", "step", st.Name, "typed", out.Typed)
			return finish()
		case st.Critical == Recoverable:
			sess.state = st.Milestone
			s.logger.Warn("sequence: recoverable step failed", "step", st.Name, "error", out.Err)
		default:
			out.State = StateAborted
			sess.log = append(sess.log, out)
			rep.Outcomes = sess.log
			rep.abort(&CriticalStepError{
				Step:     st.Name,
				State:    sess.state,
				Attempts: attemptsOf(out.Err),
				Err:      out.Err,
			})
			s.logger.Error("sequence: critical step failed", "step", st.Name, "state", sess.state, "error", out.Err)
			return finish()
		}

		out.State = sess.state
		sess.log = append(sess.log, out)
		s.logger.Info("sequence: step finished", "step", st.Name, "state", sess.state,
			"success", out.Success, "matched", matchedName(out.Matched), "duration", out.Duration)
	}

	sess.state = StateDone
	rep.State = StateDone
	rep.Outcomes = sess.log
	s.logger.Info("sequence: run done", "steps", len(sess.log), "elapsed", time.Since(start))
	return finish()
}

func (s *Sequencer) exec(ctx context.Context, sess *session, st Step) (out Outcome) {
	start := time.Now()
	out = Outcome{Step: st.Name, Action: st.Action}
	defer func() { out.Duration = time.Since(start) }()

	if st.URL != "" {
		sess.frame.Reset()
		if err := s.drv.Navigate(ctx, st.URL); err != nil {
			out.fail(fmt.Errorf("navigate: %w", err))
			return out
		}
	}

	switch st.Action {
	case ActionNavigate:
		m, err := s.resolve(ctx, sess, st, st.Candidates)
		if err != nil {
			out.fail(err)
			return out
		}
		out.matched(m)

	case ActionFrame:
		timeout := st.Timeout
		if timeout <= 0 {
			timeout = s.cfg.StepTimeout
		}
		m, err := sess.frame.Enter(ctx, st.Candidates, timeout)
		if err != nil {
			out.fail(err)
			out.Warning = err.Error()
			return out
		}
		out.matched(m)

	case ActionDismiss:
		popupTimeout := s.cfg.PopupTimeout
		if st.Timeout > 0 {
			popupTimeout = st.Timeout
		}
		out.Dismissed = s.guard.DismissAll(ctx, sess.frame.Current(), st.Candidates, popupTimeout)

	case ActionClick, ActionType:
		part := Part{Action: st.Action, Candidates: st.Candidates, Payload: st.Payload, Multiline: st.Multiline}
		if err := s.act(ctx, sess, st, part, &out); err != nil {
			out.fail(err)
			return out
		}

	case ActionComposite:
		for i, p := range st.Parts {
			if err := s.act(ctx, sess, st, p, &out); err != nil {
				label := p.Label
				if label == "" {
					label = fmt.Sprintf("part %d", i)
				}
				out.fail(fmt.Errorf("%s: %w", label, err))
				// Parts that did resolve stay in Trail only.
				out.Matched = nil
				return out
			}
		}
	}

	out.Success = true
	if err := wait(ctx, st.Settle); err != nil {
		s.logger.Debug("sequence: settle interrupted", "step", st.Name, "error", err)
	}
	return out
}

// resolve locates one target of st in the active scope. A step's own
// Timeout is split exactly over cands; otherwise the resolver slices the
// default step timeout.
func (s *Sequencer) resolve(ctx context.Context, sess *session, st Step, cands []Candidate) (*Match, error) {
	if st.Timeout > 0 {
		return s.res.resolveSlice(ctx, cands, sess.frame.Current(), exactSlice(st.Timeout, len(cands)))
	}
	return s.res.Resolve(ctx, cands, sess.frame.Current(), s.cfg.StepTimeout)
}

// act resolves one target in the active scope, clicks it and types the
// payload for type actions.
func (s *Sequencer) act(ctx context.Context, sess *session, st Step, p Part, out *Outcome) error {
	m, err := s.resolve(ctx, sess, st, p.Candidates)
	if err != nil {
		return err
	}
	out.matched(m)

	if err := s.drv.Click(ctx, m.Element); err != nil {
		return fmt.Errorf("click %s: %w", m.Candidate.Name(), err)
	}
	if p.Action != ActionType {
		return nil
	}

	n, err := s.typist.Type(ctx, m.Element, p.Payload, TypeOptions{Delay: s.cfg.CharDelay, Multiline: p.Multiline})
	out.Typed += n
	if err != nil {
		if errors.Is(err, ErrInterruptedInput) {
			out.Warning = err.Error()
		}
		return err
	}
	return nil
}

func (o *Outcome) matched(m *Match) {
	c := m.Candidate
	o.Matched = &c
	o.Attempts = append(o.Attempts, m.Attempts...)
	if o.Action == ActionComposite {
		o.Trail = append(o.Trail, c)
	}
}

func matchedName(c *Candidate) string {
	if c == nil {
		return ""
	}
	return c.Name()
}
