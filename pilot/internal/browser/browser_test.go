package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/blogpilot/sequence"
)

func TestShouldBlock(t *testing.T) {
	set := map[string]bool{"images": true, "fonts": true}
	cases := map[string]bool{
		"Image":      true,
		"Font":       true,
		"Stylesheet": false,
		"Media":      false,
		"Document":   false,
		"Script":     false,
	}
	for typ, want := range cases {
		if got := shouldBlock(set, typ); got != want {
			t.Errorf("%s: got %v, want %v", typ, got, want)
		}
	}
}

func TestParseStealth(t *testing.T) {
	cases := map[string]StealthLevel{
		"":         LevelHeadless,
		"headless": LevelHeadless,
		"HEADFUL":  LevelHeadful,
		"plain":    LevelPlain,
		"2":        LevelHeadful,
	}
	for in, want := range cases {
		got, err := ParseStealth(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: got %v, want %v", in, got, want)
		}
	}
	if _, err := ParseStealth("invisible"); err == nil {
		t.Error("unknown level should fail")
	}
}

func TestOpenPage_NotStarted(t *testing.T) {
	mgr := NewManager(Config{})
	if _, err := OpenPage(context.Background(), mgr); err == nil {
		t.Fatal("expected error without a browser")
	}
}

const editorHTML = `<!doctype html><html><body>
<input id="id"><input id="pw" type="password">
<button class="btn_login" style="display:none">hidden</button>
<button type="submit">로그인</button>
<iframe id="mainFrame" name="mainFrame" srcdoc="<div class='se-section-documentTitle' contenteditable='true'></div><button>저장</button>"></iframe>
</body></html>`

// TestDriver_Chrome drives a real browser. Set BLOGPILOT_CHROME to a Chrome
// binary to run it.
func TestDriver_Chrome(t *testing.T) {
	bin := os.Getenv("BLOGPILOT_CHROME")
	if bin == "" || testing.Short() {
		t.Skip("BLOGPILOT_CHROME not set")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, editorHTML)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mgr := NewManager(Config{Bin: bin, Stealth: LevelPlain})
	defer mgr.Close()
	if _, err := mgr.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	page, err := OpenPage(ctx, mgr)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer page.Close()
	drv := page.Driver()

	if err := drv.Navigate(ctx, srv.URL); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	if _, err := drv.Find(ctx, drv.Top(), sequence.CSS(".btn_login", "")); !errors.Is(err, sequence.ErrNoMatch) {
		t.Errorf("hidden button: got %v, want ErrNoMatch", err)
	}
	if _, err := drv.Find(ctx, drv.Top(), sequence.ID("pw", "")); err != nil {
		t.Errorf("id lookup: %v", err)
	}

	frameEl, err := drv.Find(ctx, drv.Top(), sequence.CSS("#mainFrame", ""))
	if err != nil {
		t.Fatalf("frame element: %v", err)
	}
	scope, err := drv.EnterFrame(ctx, frameEl)
	if err != nil {
		t.Fatalf("enter frame: %v", err)
	}
	if scope.ScopeName() != "frame:mainFrame" {
		t.Errorf("scope name: got %q", scope.ScopeName())
	}

	title, err := drv.Find(ctx, scope, sequence.CSS(".se-section-documentTitle", ""))
	if err != nil {
		t.Fatalf("title in frame: %v", err)
	}
	if err := drv.Click(ctx, title); err != nil {
		t.Fatalf("click: %v", err)
	}
	for _, r := range "hi" {
		if err := drv.SendChar(ctx, title, r); err != nil {
			t.Fatalf("send %q: %v", r, err)
		}
	}
	html, err := drv.HTML(ctx, scope)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if want := ">hi</div>"; !strings.Contains(html, want) {
		t.Errorf("frame html missing %q: %s", want, html)
	}

	if _, err := drv.Find(ctx, scope, sequence.XPath("//button[contains(., '저장')]", "")); err != nil {
		t.Errorf("xpath in frame: %v", err)
	}
}

func TestDisplaySocket(t *testing.T) {
	cases := []struct {
		display string
		want    string
		ok      bool
	}{
		{":99", "/tmp/.X11-unix/X99", true},
		{":1.0", "/tmp/.X11-unix/X1", true},
		{"99", "", false},
		{":x", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := displaySocket(c.display)
		if (err == nil) != c.ok {
			t.Errorf("%q: error %v, want ok=%v", c.display, err, c.ok)
			continue
		}
		if got != c.want {
			t.Errorf("%q: got %q, want %q", c.display, got, c.want)
		}
	}
}

func TestStartXvfb_ReusesRunningDisplay(t *testing.T) {
	dir := t.TempDir()
	old := x11SocketDir
	x11SocketDir = dir
	t.Cleanup(func() { x11SocketDir = old })

	if err := os.WriteFile(dir+"/X42", nil, 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewManager(Config{XvfbDisplay: ":42", Stealth: LevelHeadful, Logger: slog.New(slog.DiscardHandler)})
	if err := m.startXvfb(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if m.xvfb != nil {
		t.Error("started a second server on a running display")
	}
}

func TestWaitSocket(t *testing.T) {
	path := t.TempDir() + "/X7"
	go func() {
		time.Sleep(20 * time.Millisecond)
		os.WriteFile(path, nil, 0o600)
	}()
	if err := waitSocket(context.Background(), path, time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}

	err := waitSocket(context.Background(), t.TempDir()+"/X8", 30*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("missing socket: got %v, want deadline exceeded", err)
	}
}
