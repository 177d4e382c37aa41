package pilot

import (
	"context"
	"fmt"
	"time"

	"github.com/hazyhaar/blogpilot/pilot/internal/inspect"
	"github.com/hazyhaar/blogpilot/sequence"
)

const surveyLimit = 30

// InspectOptions selects the page to survey.
type InspectOptions struct {
	// URL defaults to the editor page.
	URL string
	// Login runs the login step first.
	Login bool
	// Frame enters the editor frame before the snapshot.
	Frame bool
	// Limit caps each survey listing. Zero uses a default.
	Limit int
}

// InspectResult is a survey of one page plus the offline verdict of every
// configured candidate list against it.
type InspectResult struct {
	URL    string                           `json:"url"`
	Scope  string                           `json:"scope"`
	Frame  *sequence.Candidate              `json:"frame,omitempty"`
	Survey *inspect.Survey                  `json:"survey"`
	Checks map[string][]inspect.CheckResult `json:"checks"`
	First  map[string]int                   `json:"first_hit"`
}

// Inspect opens a page, optionally logs in and enters the editor frame, and
// reports the interactive elements it finds with suggested candidates.
func (p *Pilot) Inspect(ctx context.Context, opts InspectOptions) (*InspectResult, error) {
	if opts.URL == "" {
		opts.URL = p.cfg.Site.WriteURL
	}
	if opts.Limit <= 0 {
		opts.Limit = surveyLimit
	}
	if opts.Login && !p.cfg.Credentials.Valid() {
		return nil, ErrNoCredentials
	}

	sess, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			p.logger.Debug("pilot: close session", "error", err)
		}
	}()
	drv := sess.Driver

	snap, ok := drv.(Snapshotter)
	if !ok {
		return nil, fmt.Errorf("pilot: inspect: driver %T cannot snapshot", drv)
	}

	scfg := SequencerConfig(p.cfg)
	scfg.Logger = p.logger

	if opts.Login {
		login := BuildSteps(p.cfg, p.cfg.Credentials, Post{})[0]
		if _, err := sequence.New(drv, scfg).Run(ctx, []sequence.Step{login}); err != nil {
			return nil, fmt.Errorf("pilot: inspect: %w", err)
		}
	}

	if err := drv.Navigate(ctx, opts.URL); err != nil {
		return nil, fmt.Errorf("pilot: inspect: navigate: %w", err)
	}
	if err := pause(ctx, p.cfg.Run.EditorSettle); err != nil {
		return nil, err
	}

	res := &InspectResult{URL: opts.URL}
	rcfg := scfg.Resolver
	rcfg.Logger = p.logger
	fc := sequence.NewFrameContext(drv, sequence.NewResolver(drv, rcfg), p.logger)
	if opts.Frame {
		m, err := fc.Enter(ctx, p.cfg.Selectors.EditorFrame, p.cfg.Run.StepTimeout)
		if err != nil {
			p.logger.Warn("pilot: inspect: frame not entered, surveying top level", "error", err)
		} else {
			c := m.Candidate
			res.Frame = &c
		}
	}
	res.Scope = fc.Current().ScopeName()

	doc, err := snap.HTML(ctx, fc.Current())
	if err != nil {
		return nil, fmt.Errorf("pilot: inspect: %w", err)
	}
	if res.Survey, err = inspect.Parse(doc, opts.Limit); err != nil {
		return nil, err
	}
	if res.Checks, res.First, err = CheckSelectors(doc, p.cfg.Selectors); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckSelectors evaluates every configured candidate list against a
// snapshot. first maps each list to the index of its first hit, -1 if none.
func CheckSelectors(doc string, sel SelectorsConfig) (checks map[string][]inspect.CheckResult, first map[string]int, err error) {
	checks = make(map[string][]inspect.CheckResult)
	first = make(map[string]int)
	for _, l := range selectorLists(sel) {
		r, err := inspect.Check(doc, l.cands)
		if err != nil {
			return nil, nil, err
		}
		checks[l.name] = r
		first[l.name] = inspect.FirstHit(r)
	}
	return checks, first, nil
}

type namedList struct {
	name  string
	cands []sequence.Candidate
}

func selectorLists(sel SelectorsConfig) []namedList {
	return []namedList{
		{"account_field", sel.AccountField},
		{"secret_field", sel.SecretField},
		{"login_button", sel.LoginButton},
		{"editor_ready", sel.EditorReady},
		{"editor_frame", sel.EditorFrame},
		{"popups", sel.Popups},
		{"title", sel.Title},
		{"body", sel.Body},
		{"save", sel.Save},
		{"confirm_save", sel.ConfirmSave},
	}
}

func pause(ctx context.Context, d time.Duration) error {
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
