package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/blogpilot/sequence"
)

// Scope is the top-level document or one frame of a tab.
type Scope struct {
	page *rod.Page
	name string
}

func (s *Scope) ScopeName() string { return s.name }

// DriverConfig configures a Driver.
type DriverConfig struct {
	// NavTimeout bounds one navigation including page load. Default: 30s.
	NavTimeout time.Duration
	Logger     *slog.Logger
}

// Driver implements sequence.Driver over a Rod page.
type Driver struct {
	top    *Scope
	cfg    DriverConfig
	logger *slog.Logger
}

var _ sequence.Driver = (*Driver)(nil)

// NewDriver wraps page.
func NewDriver(page *rod.Page, cfg DriverConfig) *Driver {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Driver{top: &Scope{page: page, name: "top"}, cfg: cfg, logger: cfg.Logger}
}

// Top returns the top-level document scope.
func (d *Driver) Top() sequence.Scope { return d.top }

// Navigate loads url in the tab and waits for the load event. A load that
// does not finish in time is logged; the page may still be usable.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavTimeout)
	defer cancel()

	page := d.top.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}
	return nil
}

// Find returns the first visible element matching c in scope, without
// waiting.
func (d *Driver) Find(ctx context.Context, scope sequence.Scope, c sequence.Candidate) (sequence.Element, error) {
	s, err := d.scope(scope)
	if err != nil {
		return nil, err
	}
	page := s.page.Context(ctx)

	var els rod.Elements
	if c.Kind == sequence.KindXPath {
		els, err = page.ElementsX(c.Expr)
	} else {
		els, err = page.Elements(c.Selector())
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", sequence.ErrTimeout, err)
		}
		return nil, fmt.Errorf("browser: find %s: %w", c, err)
	}

	for _, el := range els {
		visible, verr := el.Visible()
		if verr != nil {
			continue
		}
		if visible {
			return el, nil
		}
	}
	return nil, sequence.ErrNoMatch
}

// Click clicks el with the mouse and falls back to a DOM click when the
// element is covered or not interactable.
func (d *Driver) Click(ctx context.Context, el sequence.Element) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	e = e.Context(ctx)

	if err := e.ScrollIntoView(); err != nil {
		d.logger.Debug("browser: scroll into view", "error", err)
	}
	cerr := e.Click(proto.InputMouseButtonLeft, 1)
	if cerr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.logger.Debug("browser: mouse click failed, trying js click", "error", cerr)
	if _, jerr := e.Eval(`() => { this.focus(); this.click(); }`); jerr != nil {
		return fmt.Errorf("browser: click: %w (js fallback: %v)", cerr, jerr)
	}
	return nil
}

// SendChar inserts one character at the focused position of el's document.
func (d *Driver) SendChar(ctx context.Context, el sequence.Element, r rune) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	if err := e.Page().Context(ctx).InsertText(string(r)); err != nil {
		return fmt.Errorf("browser: insert text: %w", err)
	}
	return nil
}

// PressEnter sends a distinguished Enter key press to el.
func (d *Driver) PressEnter(ctx context.Context, el sequence.Element) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	if err := e.Context(ctx).Type(input.Enter); err != nil {
		return fmt.Errorf("browser: press enter: %w", err)
	}
	return nil
}

// EnterFrame returns the document of the iframe el.
func (d *Driver) EnterFrame(ctx context.Context, el sequence.Element) (sequence.Scope, error) {
	e, err := element(el)
	if err != nil {
		return nil, err
	}
	e = e.Context(ctx)

	fp, err := e.Frame()
	if err != nil {
		return nil, fmt.Errorf("browser: enter frame: %w", err)
	}

	name := "frame"
	for _, attr := range []string{"name", "id"} {
		if v, aerr := e.Attribute(attr); aerr == nil && v != nil && *v != "" {
			name = "frame:" + *v
			break
		}
	}
	return &Scope{page: fp, name: name}, nil
}

// HTML returns the serialised document of scope.
func (d *Driver) HTML(ctx context.Context, scope sequence.Scope) (string, error) {
	s, err := d.scope(scope)
	if err != nil {
		return "", err
	}
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: html: %w", err)
	}
	return html, nil
}

func (d *Driver) scope(s sequence.Scope) (*Scope, error) {
	if s == nil {
		return d.top, nil
	}
	sc, ok := s.(*Scope)
	if !ok {
		return nil, fmt.Errorf("browser: foreign scope %T", s)
	}
	return sc, nil
}

func element(el sequence.Element) (*rod.Element, error) {
	e, ok := el.(*rod.Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("browser: foreign element %T", el)
	}
	return e, nil
}
