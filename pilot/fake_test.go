package pilot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/blogpilot/sequence"
)

type fakeScope string

func (s fakeScope) ScopeName() string { return string(s) }

type fakeEl struct{ expr string }

// fakeDriver is an editor page where every expression in present matches,
// whatever the scope.
type fakeDriver struct {
	present map[string]bool
	frames  map[string]bool
	html    string
	hang    bool // HTML blocks until its context ends

	navs      []string
	typed     strings.Builder
	htmlCalls int
	closed    bool
}

// editorPage matches the preferred candidate of every default list except
// popups and confirm-save.
func editorPage() *fakeDriver {
	d := &fakeDriver{present: map[string]bool{}, frames: map[string]bool{"#mainFrame": true}}
	for _, e := range []string{"id", "pw", ".btn_login", "#mainFrame", ".se-section-documentTitle", ".se-section-text", ".save_btn__bzc5B"} {
		d.present[e] = true
	}
	return d
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	f.navs = append(f.navs, url)
	return nil
}

func (f *fakeDriver) Find(ctx context.Context, _ sequence.Scope, c sequence.Candidate) (sequence.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.present[c.Expr] {
		return &fakeEl{expr: c.Expr}, nil
	}
	return nil, sequence.ErrNoMatch
}

func (f *fakeDriver) Click(context.Context, sequence.Element) error { return nil }

func (f *fakeDriver) SendChar(_ context.Context, _ sequence.Element, r rune) error {
	f.typed.WriteRune(r)
	return nil
}

func (f *fakeDriver) PressEnter(context.Context, sequence.Element) error {
	f.typed.WriteString("\n")
	return nil
}

func (f *fakeDriver) EnterFrame(_ context.Context, el sequence.Element) (sequence.Scope, error) {
	e := el.(*fakeEl)
	if !f.frames[e.expr] {
		return nil, errors.New("not a frame")
	}
	return fakeScope("frame:" + e.expr), nil
}

func (f *fakeDriver) Top() sequence.Scope { return fakeScope("top") }

func (f *fakeDriver) HTML(ctx context.Context, _ sequence.Scope) (string, error) {
	f.htmlCalls++
	if f.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.html, nil
}

const (
	testAccount = "writer01"
	testSecret  = "s3cret-pw!"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Credentials = Credentials{ID: testAccount, Secret: testSecret}
	cfg.Run.StepTimeout = 20 * time.Millisecond
	cfg.Run.MinSlice = 2 * time.Millisecond
	cfg.Run.PollInterval = time.Millisecond
	cfg.Run.PopupTimeout = 3 * time.Millisecond
	cfg.Run.CharDelay = -1
	cfg.Run.LoginSettle = 0
	cfg.Run.EditorSettle = 0
	cfg.Run.SaveSettle = 0
	return cfg
}

func newTestPilot(t *testing.T, cfg *Config, drv *fakeDriver) (*Pilot, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	p, err := New(cfg, Options{
		StorePath: ":memory:",
		Open: func(context.Context) (*Session, error) {
			return &Session{Driver: drv, Close: func() error { drv.closed = true; return nil }}, nil
		},
		Logger: slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatalf("new pilot: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, &logs
}
