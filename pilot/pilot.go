// Package pilot drives the blog editor: it builds the publish pipeline from
// the configuration, runs it in a browser tab and records every run.
package pilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hazyhaar/blogpilot/pilot/internal/browser"
	"github.com/hazyhaar/blogpilot/pilot/internal/inspect"
	"github.com/hazyhaar/blogpilot/pilot/internal/store"
	"github.com/hazyhaar/blogpilot/sequence"
)

var (
	ErrNoCredentials = errors.New("pilot: account credentials not set")
	ErrEmptyPost     = errors.New("pilot: post needs a title and a body")
	ErrNoStore       = errors.New("pilot: no run store")
)

// Snapshotter is implemented by drivers that can serialise a scope.
type Snapshotter interface {
	HTML(ctx context.Context, scope sequence.Scope) (string, error)
}

// Session is one open browser tab.
type Session struct {
	Driver sequence.Driver
	Close  func() error
}

// OpenFunc opens a browser session.
type OpenFunc func(ctx context.Context) (*Session, error)

// Options configures a Pilot.
type Options struct {
	// StorePath overrides cfg.Store.Path. ":memory:" keeps runs in memory;
	// "-" disables the store.
	StorePath string

	// Open overrides the browser session factory.
	Open OpenFunc

	Logger *slog.Logger
}

// Pilot publishes posts and keeps the run history.
type Pilot struct {
	cfg    *Config
	store  *store.Store
	open   OpenFunc
	mgr    *browser.Manager
	logger *slog.Logger
	newID  func() string
}

// New creates a Pilot and opens its run store.
func New(cfg *Config, opts Options) (*Pilot, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &Pilot{
		cfg:    cfg,
		open:   opts.Open,
		logger: opts.Logger,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}

	path := opts.StorePath
	if path == "" {
		path = cfg.Store.Path
	}
	if path != "-" && path != "" {
		s, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		p.store = s
	}

	if p.open == nil {
		p.open = p.openBrowser
	}
	return p, nil
}

// Close releases the browser and the store.
func (p *Pilot) Close() error {
	var errs []error
	if p.mgr != nil {
		errs = append(errs, p.mgr.Close())
	}
	if p.store != nil {
		errs = append(errs, p.store.Close())
	}
	return errors.Join(errs...)
}

// Config returns the configuration the Pilot runs with.
func (p *Pilot) Config() *Config { return p.cfg }

func (p *Pilot) openBrowser(ctx context.Context) (*Session, error) {
	if p.mgr == nil {
		level, err := browser.ParseStealth(p.cfg.Browser.Stealth)
		if err != nil {
			return nil, fmt.Errorf("pilot: %w", err)
		}
		p.mgr = browser.NewManager(browser.Config{
			RemoteURL:        p.cfg.Browser.Remote,
			Bin:              p.cfg.Browser.Bin,
			UserDataDir:      p.cfg.Browser.UserDataDir,
			ResourceBlocking: p.cfg.Browser.ResourceBlocking,
			Stealth:          level,
			XvfbDisplay:      p.cfg.Browser.XvfbDisplay,
			NavTimeout:       p.cfg.Browser.NavTimeout,
			Logger:           p.logger,
		})
	}
	if _, err := p.mgr.Start(ctx); err != nil {
		return nil, fmt.Errorf("pilot: start browser: %w", err)
	}
	page, err := browser.OpenPage(ctx, p.mgr)
	if err != nil {
		return nil, fmt.Errorf("pilot: %w", err)
	}
	return &Session{Driver: page.Driver(), Close: page.Close}, nil
}

// Publish runs the publish pipeline for post in a fresh tab and stores the
// report. The report is returned even when the run aborted; the error is
// then the run error.
func (p *Pilot) Publish(ctx context.Context, post Post) (*sequence.Report, error) {
	if !p.cfg.Credentials.Valid() {
		return nil, ErrNoCredentials
	}
	if post.Title == "" || post.Body == "" {
		return nil, ErrEmptyPost
	}

	id := p.newID()
	logger := p.logger.With("run_id", id)

	sess, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Debug("pilot: close session", "error", err)
		}
	}()

	scfg := SequencerConfig(p.cfg)
	scfg.Logger = logger
	seq := sequence.New(sess.Driver, scfg)

	logger.Info("pilot: publish", "row", post.Row, "account", p.cfg.Credentials)
	rep, runErr := seq.Run(ctx, BuildSteps(p.cfg, p.cfg.Credentials, post))
	rep.RunID = id

	if !rep.Done() && p.cfg.Run.SurveyOnFailure {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Run.StepTimeout)
		p.survey(sctx, logger, sess.Driver)
		cancel()
	}

	if p.store != nil {
		if err := p.store.SaveReport(context.WithoutCancel(ctx), rep, post.Title); err != nil {
			logger.Error("pilot: save report", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pilot: publish aborted", "state", rep.State, "error", runErr)
		return rep, runErr
	}
	logger.Info("pilot: published", "elapsed", rep.Elapsed, "matches", rep.Matches())
	return rep, nil
}

// survey logs what the page offers when a run aborts, so the candidate
// lists can be updated.
func (p *Pilot) survey(ctx context.Context, logger *slog.Logger, drv sequence.Driver) {
	snap, ok := drv.(Snapshotter)
	if !ok {
		return
	}
	doc, err := snap.HTML(ctx, drv.Top())
	if err != nil {
		logger.Warn("pilot: survey snapshot", "error", err)
		return
	}
	sv, err := inspect.Parse(doc, surveyLimit)
	if err != nil {
		logger.Warn("pilot: survey parse", "error", err)
		return
	}
	logger.Warn("pilot: page survey after abort", "totals", sv.Totals)
	for _, el := range sv.Buttons {
		logger.Debug("pilot: survey button", "tag", el.Tag, "text", el.Text, "suggested", el.Suggested)
	}
}
