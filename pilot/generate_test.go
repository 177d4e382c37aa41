package pilot

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/blogpilot/compose"
	"github.com/hazyhaar/blogpilot/sheet"
)

type titleEcho struct{ fail string }

func (g titleEcho) Generate(_ context.Context, title string) (string, error) {
	if title == g.fail {
		return "", compose.ErrEmpty
	}
	return "본문: " + title, nil
}

func TestFillSheet(t *testing.T) {
	cfg := testConfig()
	cfg.Compose.Pause = -1
	cfg.Compose.Attempts = 1
	path := filepath.Join(t.TempDir(), "posting.xlsx")
	if err := sheet.Seed(path, []string{"one", "two", "three"}, SheetOptions(cfg)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := FillSheet(context.Background(), titleEcho{fail: "two"}, cfg, path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if len(res.Filled) != 2 || len(res.Skipped) != 1 || res.Skipped[0].Item.Title != "two" {
		t.Fatalf("result: %+v", res)
	}

	// Progress is on disk.
	post, err := PostFromSheet(cfg, path, res.Filled[1].Row)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if post.Title != "three" || post.Body != "본문: three" {
		t.Errorf("row %d: %+v", res.Filled[1].Row, post)
	}

	book, err := sheet.Read(path, SheetOptions(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if p := book.Pending(); len(p) != 1 || p[0].Title != "two" {
		t.Errorf("pending: %+v", p)
	}
}

func TestPostFromSheet_NoRow(t *testing.T) {
	cfg := testConfig()
	path := filepath.Join(t.TempDir(), "posting.xlsx")
	if err := sheet.Seed(path, nil, SheetOptions(cfg)); err != nil {
		t.Fatal(err)
	}
	if _, err := PostFromSheet(cfg, path, 99); !errors.Is(err, sheet.ErrNoRow) {
		t.Errorf("error: got %v, want ErrNoRow", err)
	}
}

func TestNewGenerator(t *testing.T) {
	for _, backend := range []string{"gemini", "openai"} {
		cfg := testConfig()
		cfg.Compose.Backend = backend
		cfg.Compose.APIKey = ""
		if _, err := NewGenerator(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "missing API key") {
			t.Errorf("%s without key: got %v", backend, err)
		}
	}

	cfg := testConfig()
	cfg.Compose.Backend = "local"
	if _, err := NewGenerator(context.Background(), cfg); err == nil {
		t.Error("unknown backend: expected error")
	}

	cfg = testConfig()
	cfg.Compose.Prompt = "{{.Title"
	if _, err := NewGenerator(context.Background(), cfg); err == nil {
		t.Error("bad prompt: expected error")
	}
}
