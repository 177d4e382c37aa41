package sequence

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

type fakeScope string

func (s fakeScope) ScopeName() string { return string(s) }

type fakeEl struct {
	scope string
	expr  string
}

// fakeDriver is an in-memory page. Elements are keyed by "scope|expr".
type fakeDriver struct {
	present  map[string]bool
	after    map[string]int // element appears on the n-th Find
	frames   map[string]string
	clickErr map[string]error
	navErr   error

	finds  map[string]int
	calls  []string
	typed  []string
	onChar func(n int)
}

func newFake() *fakeDriver {
	return &fakeDriver{
		present:  map[string]bool{},
		after:    map[string]int{},
		frames:   map[string]string{},
		clickErr: map[string]error{},
		finds:    map[string]int{},
	}
}

func (f *fakeDriver) add(scope string, exprs ...string) *fakeDriver {
	for _, e := range exprs {
		f.present[scope+"|"+e] = true
	}
	return f
}

func (f *fakeDriver) frame(expr, scope string) *fakeDriver {
	f.present["top|"+expr] = true
	f.frames[expr] = scope
	return f
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	f.calls = append(f.calls, "navigate:"+url)
	return f.navErr
}

func (f *fakeDriver) Find(ctx context.Context, scope Scope, c Candidate) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := scope.ScopeName() + "|" + c.Expr
	f.finds[key]++
	f.calls = append(f.calls, "find:"+key)
	if n, ok := f.after[key]; ok && f.finds[key] >= n {
		return &fakeEl{scope: scope.ScopeName(), expr: c.Expr}, nil
	}
	if f.present[key] {
		return &fakeEl{scope: scope.ScopeName(), expr: c.Expr}, nil
	}
	return nil, ErrNoMatch
}

func (f *fakeDriver) Click(_ context.Context, el Element) error {
	e := el.(*fakeEl)
	f.calls = append(f.calls, "click:"+e.expr)
	return f.clickErr[e.expr]
}

func (f *fakeDriver) SendChar(_ context.Context, _ Element, r rune) error {
	f.typed = append(f.typed, string(r))
	if f.onChar != nil {
		f.onChar(len(f.typed))
	}
	return nil
}

func (f *fakeDriver) PressEnter(_ context.Context, _ Element) error {
	f.typed = append(f.typed, "<enter>")
	return nil
}

func (f *fakeDriver) EnterFrame(_ context.Context, el Element) (Scope, error) {
	e := el.(*fakeEl)
	name, ok := f.frames[e.expr]
	if !ok {
		return nil, errors.New("not a frame")
	}
	return fakeScope(name), nil
}

func (f *fakeDriver) Top() Scope { return fakeScope("top") }

func (f *fakeDriver) text() string { return strings.Join(f.typed, "") }

func (f *fakeDriver) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func fastResolver(drv Driver) *Resolver {
	return NewResolver(drv, ResolverConfig{
		MinSlice:     5 * time.Millisecond,
		PollInterval: time.Millisecond,
		Logger:       quietLogger(),
	})
}

func fastConfig() Config {
	return Config{
		Resolver: ResolverConfig{
			MinSlice:     5 * time.Millisecond,
			PollInterval: time.Millisecond,
		},
		StepTimeout:  10 * time.Millisecond,
		PopupTimeout: 5 * time.Millisecond,
		CharDelay:    -1,
		Logger:       quietLogger(),
	}
}
