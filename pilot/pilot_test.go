package pilot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/blogpilot/sequence"
)

var testPost = Post{Title: "봄 여행", Body: "first line\nsecond line"}

func TestPublish_Done(t *testing.T) {
	drv := editorPage()
	p, logs := newTestPilot(t, testConfig(), drv)

	rep, err := p.Publish(context.Background(), testPost)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !rep.Done() {
		t.Fatalf("state: got %s, want done", rep.State)
	}
	if rep.RunID == "" {
		t.Error("empty run id")
	}
	if !drv.closed {
		t.Error("session not closed")
	}

	want := testAccount + testSecret + testPost.Title + testPost.Body
	if got := drv.typed.String(); got != want {
		t.Errorf("typed: got %q, want %q", got, want)
	}
	if len(drv.navs) != 2 || drv.navs[0] != p.cfg.Site.LoginURL || drv.navs[1] != p.cfg.Site.WriteURL {
		t.Errorf("navigations: %v", drv.navs)
	}

	matches := rep.Matches()
	for step, label := range map[string]string{
		StepLogin:      "btn_login",
		StepEnterFrame: "#mainFrame",
		StepFillTitle:  "se documentTitle",
		StepFillBody:   "se section-text",
		StepSave:       "save_btn hashed",
	} {
		if matches[step] != label {
			t.Errorf("match %s: got %q, want %q", step, matches[step], label)
		}
	}

	run, err := p.Run(context.Background(), rep.RunID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if run.State != sequence.StateDone || len(run.Outcomes) != 8 {
		t.Errorf("stored: state %s, %d outcomes", run.State, len(run.Outcomes))
	}
	if run.Title != testPost.Title {
		t.Errorf("stored title: got %q", run.Title)
	}

	stored, _ := json.Marshal(run)
	for _, secret := range []string{testSecret, testAccount, "second line"} {
		if strings.Contains(string(stored), secret) {
			t.Errorf("stored run contains %q", secret)
		}
		if strings.Contains(logs.String(), secret) {
			t.Errorf("logs contain %q", secret)
		}
	}
}

func TestPublish_SaveMissingAborts(t *testing.T) {
	drv := editorPage()
	delete(drv.present, ".save_btn__bzc5B")
	drv.html = `<html><body><button class="publish">발행</button></body></html>`
	cfg := testConfig()
	cfg.Run.SurveyOnFailure = true
	p, logs := newTestPilot(t, cfg, drv)

	rep, err := p.Publish(context.Background(), testPost)
	if !errors.Is(err, sequence.ErrCriticalStepFailed) {
		t.Fatalf("error: got %v, want ErrCriticalStepFailed", err)
	}
	if rep == nil || rep.State != sequence.StateAborted {
		t.Fatalf("report: %+v", rep)
	}
	if drv.htmlCalls != 1 {
		t.Errorf("survey snapshots: got %d, want 1", drv.htmlCalls)
	}
	if !strings.Contains(logs.String(), "page survey after abort") {
		t.Error("survey not logged")
	}

	run, err := p.Run(context.Background(), rep.RunID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if run.State != sequence.StateAborted || run.Error == "" {
		t.Errorf("stored: state %s, error %q", run.State, run.Error)
	}
	if len(run.Outcomes) != 7 {
		t.Errorf("outcomes: got %d, want 7", len(run.Outcomes))
	}
}

func TestPublish_SurveyIsBounded(t *testing.T) {
	drv := editorPage()
	delete(drv.present, ".save_btn__bzc5B")
	drv.hang = true
	cfg := testConfig()
	cfg.Run.SurveyOnFailure = true
	p, logs := newTestPilot(t, cfg, drv)

	done := make(chan struct{})
	var rep *sequence.Report
	go func() {
		defer close(done)
		rep, _ = p.Publish(context.Background(), testPost)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a hung snapshot")
	}

	if !strings.Contains(logs.String(), "survey snapshot") {
		t.Error("snapshot failure not logged")
	}
	if _, err := p.Run(context.Background(), rep.RunID); err != nil {
		t.Errorf("run not stored after survey timeout: %v", err)
	}
}

func TestPublish_NoSurveyByDefault(t *testing.T) {
	drv := editorPage()
	delete(drv.present, ".save_btn__bzc5B")
	p, _ := newTestPilot(t, testConfig(), drv)

	if _, err := p.Publish(context.Background(), testPost); err == nil {
		t.Fatal("expected abort")
	}
	if drv.htmlCalls != 0 {
		t.Errorf("survey snapshots: got %d, want 0", drv.htmlCalls)
	}
}

func TestPublish_Preconditions(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
		post Post
		want error
	}{
		{"no credentials", func(c *Config) { c.Credentials = Credentials{} }, testPost, ErrNoCredentials},
		{"no secret", func(c *Config) { c.Credentials.Secret = "" }, testPost, ErrNoCredentials},
		{"no title", func(*Config) {}, Post{Body: "x"}, ErrEmptyPost},
		{"no body", func(*Config) {}, Post{Title: "x"}, ErrEmptyPost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.cfg(cfg)
			drv := editorPage()
			p, _ := newTestPilot(t, cfg, drv)

			rep, err := p.Publish(context.Background(), tt.post)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error: got %v, want %v", err, tt.want)
			}
			if rep != nil {
				t.Error("report returned before the run started")
			}
			if len(drv.navs) != 0 {
				t.Error("browser used")
			}
		})
	}
}

func TestPublish_OpenError(t *testing.T) {
	p, err := New(testConfig(), Options{
		StorePath: "-",
		Open: func(context.Context) (*Session, error) {
			return nil, errors.New("chrome not found")
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Publish(context.Background(), testPost); err == nil || !strings.Contains(err.Error(), "chrome not found") {
		t.Fatalf("error: got %v", err)
	}
}

func TestPublish_WithoutStore(t *testing.T) {
	drv := editorPage()
	p, err := New(testConfig(), Options{
		StorePath: "-",
		Open: func(context.Context) (*Session, error) {
			return &Session{Driver: drv, Close: func() error { return nil }}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	rep, err := p.Publish(context.Background(), testPost)
	if err != nil || !rep.Done() {
		t.Fatalf("publish: %v", err)
	}
	if _, err := p.Runs(context.Background(), 10); !errors.Is(err, ErrNoStore) {
		t.Errorf("runs: got %v, want ErrNoStore", err)
	}
}

func TestPublish_Cancelled(t *testing.T) {
	drv := editorPage()
	p, _ := newTestPilot(t, testConfig(), drv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := p.Publish(ctx, testPost)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error: got %v, want context.Canceled", err)
	}
	// The aborted run is still recorded.
	if _, err := p.Run(context.Background(), rep.RunID); err != nil {
		t.Errorf("stored run: %v", err)
	}
}

const editorHTML = `<html><body>
<div class="se-section-documentTitle" contenteditable="true"></div>
<div class="se-section-text" contenteditable="true"></div>
<button class="save_btn__bzc5B">저장</button>
</body></html>`

func TestInspect_EntersFrame(t *testing.T) {
	drv := editorPage()
	drv.html = editorHTML
	p, _ := newTestPilot(t, testConfig(), drv)

	res, err := p.Inspect(context.Background(), InspectOptions{Frame: true})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if res.Frame == nil || res.Frame.Expr != "#mainFrame" {
		t.Errorf("frame: got %+v", res.Frame)
	}
	if res.Scope != "frame:#mainFrame" {
		t.Errorf("scope: got %q", res.Scope)
	}
	if len(drv.navs) != 1 || drv.navs[0] != p.cfg.Site.WriteURL {
		t.Errorf("navigations: %v", drv.navs)
	}
	for list, want := range map[string]int{"title": 0, "body": 0, "save": 0, "popups": -1} {
		if got := res.First[list]; got != want {
			t.Errorf("first hit %s: got %d, want %d", list, got, want)
		}
	}
	if res.Survey.Totals["button"] != 1 || res.Survey.Totals["editable"] != 2 {
		t.Errorf("totals: %v", res.Survey.Totals)
	}
	if !drv.closed {
		t.Error("session not closed")
	}
}

func TestInspect_LoginFirst(t *testing.T) {
	drv := editorPage()
	drv.html = editorHTML
	p, _ := newTestPilot(t, testConfig(), drv)

	if _, err := p.Inspect(context.Background(), InspectOptions{URL: "https://example.test/page", Login: true}); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(drv.navs) != 2 || drv.navs[0] != p.cfg.Site.LoginURL || drv.navs[1] != "https://example.test/page" {
		t.Errorf("navigations: %v", drv.navs)
	}
	if got := drv.typed.String(); got != testAccount+testSecret {
		t.Errorf("typed: got %q", got)
	}
}

func TestInspect_FrameMissingSurveysTop(t *testing.T) {
	drv := editorPage()
	drv.frames = map[string]bool{}
	p, _ := newTestPilot(t, testConfig(), drv)

	res, err := p.Inspect(context.Background(), InspectOptions{Frame: true})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if res.Frame != nil || res.Scope != "top" {
		t.Errorf("frame %+v, scope %q", res.Frame, res.Scope)
	}
}

func TestCheckSelectors(t *testing.T) {
	cfg := DefaultConfig()
	doc := `<form><input id="id"><input type="password"><button type="submit">로그인</button></form>`

	checks, first, err := CheckSelectors(doc, cfg.Selectors)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 10 {
		t.Errorf("lists: got %d, want 10", len(checks))
	}
	for list, want := range map[string]int{"account_field": 0, "secret_field": 1, "login_button": 2, "title": -1} {
		if got := first[list]; got != want {
			t.Errorf("first hit %s: got %d, want %d", list, got, want)
		}
	}
}
