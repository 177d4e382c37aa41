// Package compose generates post bodies from titles through a language
// model and fills them into a list of pending posts.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Generator writes a post body for a title.
type Generator interface {
	Generate(ctx context.Context, title string) (string, error)
}

// Backend errors. Generators wrap provider errors with one of these so the
// Composer can decide whether to retry.
var (
	ErrTransient = errors.New("compose: transient backend error")
	ErrEmpty     = errors.New("compose: empty generation")
)

// Item is one post waiting for a body.
type Item struct {
	Row   int    `json:"row"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Skip records an item the Composer gave up on.
type Skip struct {
	Item     Item   `json:"item"`
	Attempts int    `json:"attempts"`
	Err      error  `json:"-"`
	Error    string `json:"error"`
}

// Result is what Fill produced.
type Result struct {
	Filled  []Item `json:"filled"`
	Skipped []Skip `json:"skipped,omitempty"`
}

// Config configures a Composer.
type Config struct {
	// Attempts bounds the calls per item. Default: 3.
	Attempts int
	// Backoff is the wait before the first retry, doubled after each one.
	// Default: 2s.
	Backoff time.Duration
	// Pause separates calls for different items. Default: 1s.
	Pause time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.Pause < 0 {
		c.Pause = 0
	} else if c.Pause == 0 {
		c.Pause = time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Composer fills bodies with a Generator.
type Composer struct {
	gen Generator
	cfg Config
}

// New creates a Composer.
func New(gen Generator, cfg Config) *Composer {
	cfg.defaults()
	return &Composer{gen: gen, cfg: cfg}
}

// Fill generates a body for every item with a title and no body. Items
// that already have a body are left alone. An item whose generation keeps
// failing is skipped and reported; Fill itself fails only when ctx ends.
//
// onFilled, when non-nil, is called after each successful item so callers
// can persist progress.
func (c *Composer) Fill(ctx context.Context, items []Item, onFilled func(Item) error) (*Result, error) {
	log := c.cfg.Logger
	res := &Result{}
	calls := 0

	for _, it := range items {
		if it.Title == "" || it.Body != "" {
			continue
		}
		if calls > 0 {
			if err := sleep(ctx, c.cfg.Pause); err != nil {
				return res, err
			}
		}
		calls++

		body, attempts, err := c.generate(ctx, it.Title)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Skipped = append(res.Skipped, Skip{Item: it, Attempts: attempts, Err: err, Error: err.Error()})
			log.Warn("compose: item skipped", "row", it.Row, "title", it.Title, "attempts", attempts, "error", err)
			continue
		}

		it.Body = body
		res.Filled = append(res.Filled, it)
		log.Info("compose: item filled", "row", it.Row, "title", it.Title, "chars", len([]rune(body)), "attempts", attempts)

		if onFilled != nil {
			if err := onFilled(it); err != nil {
				return res, fmt.Errorf("compose: save row %d: %w", it.Row, err)
			}
		}
	}
	return res, nil
}

// Generate produces one body with retries.
func (c *Composer) Generate(ctx context.Context, title string) (string, error) {
	body, _, err := c.generate(ctx, title)
	return body, err
}

func (c *Composer) generate(ctx context.Context, title string) (string, int, error) {
	backoff := c.cfg.Backoff
	var last error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		raw, err := c.gen.Generate(ctx, title)
		if err == nil {
			body := Clean(raw)
			if body != "" {
				return body, attempt, nil
			}
			err = ErrEmpty
		}
		last = err

		if ctx.Err() != nil {
			return "", attempt, ctx.Err()
		}
		if !errors.Is(err, ErrTransient) && !errors.Is(err, ErrEmpty) {
			return "", attempt, err
		}
		if attempt == c.cfg.Attempts {
			break
		}
		c.cfg.Logger.Debug("compose: retrying", "title", title, "attempt", attempt, "backoff", backoff, "error", err)
		if err := sleep(ctx, backoff); err != nil {
			return "", attempt, err
		}
		backoff *= 2
	}
	return "", c.cfg.Attempts, last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
