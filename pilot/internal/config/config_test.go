package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/blogpilot/sequence"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Site.WriteURL != "https://blog.naver.com/GoBlogWrite.naver" {
		t.Errorf("write url: got %q", cfg.Site.WriteURL)
	}
	if cfg.Run.CharDelay != 30*time.Millisecond {
		t.Errorf("char delay: got %v, want 30ms", cfg.Run.CharDelay)
	}
	if got := len(cfg.Selectors.LoginButton); got != 5 {
		t.Errorf("login button candidates: got %d, want 5", got)
	}
	if cfg.Selectors.Title[0].Expr != ".se-section-documentTitle" {
		t.Errorf("first title candidate: got %q", cfg.Selectors.Title[0].Expr)
	}
	if cfg.Compose.Model != "gemini-2.5-flash" || cfg.Compose.MaxTokens != 2000 {
		t.Errorf("compose: got %s/%d", cfg.Compose.Model, cfg.Compose.MaxTokens)
	}
}

func TestLoadFile_Overrides(t *testing.T) {
	path := writeFile(t, "blogpilot.yaml", `
site:
  write_url: https://example.test/write
run:
  step_timeout: 5s
  char_delay: -1ns
selectors:
  title:
    - kind: xpath
      expr: //div[@role='textbox'][1]
      label: first textbox
compose:
  backend: openai
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Site.WriteURL != "https://example.test/write" {
		t.Errorf("write url: got %q", cfg.Site.WriteURL)
	}
	if cfg.Site.LoginURL == "" {
		t.Error("login url default not applied")
	}
	if cfg.Run.StepTimeout != 5*time.Second {
		t.Errorf("step timeout: got %v", cfg.Run.StepTimeout)
	}
	if cfg.Run.CharDelay >= 0 {
		t.Errorf("negative char delay should be kept: got %v", cfg.Run.CharDelay)
	}
	want := sequence.XPath("//div[@role='textbox'][1]", "first textbox")
	if len(cfg.Selectors.Title) != 1 || cfg.Selectors.Title[0] != want {
		t.Errorf("title: got %v, want [%v]", cfg.Selectors.Title, want)
	}
	if len(cfg.Selectors.Body) == 0 {
		t.Error("body defaults not applied")
	}
	if cfg.Compose.Model != "gpt-4o-mini" {
		t.Errorf("openai model default: got %q", cfg.Compose.Model)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"kind":    "selectors:\n  save:\n    - kind: regex\n      expr: save\n",
		"expr":    "selectors:\n  save:\n    - kind: css\n      expr: ' '\n",
		"backend": "compose:\n  backend: claude\n",
		"yaml":    "site: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFile(writeFile(t, "c.yaml", body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "blogpilot.db" {
		t.Errorf("store path: got %q", cfg.Store.Path)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvAccountID, "")
	t.Setenv(EnvAccountSecret, "from-process")
	t.Setenv(EnvGoogleAPIKey, "")
	os.Unsetenv(EnvAccountID)
	os.Unsetenv(EnvGoogleAPIKey)

	env := writeFile(t, ".env", EnvAccountID+"=writer\n"+EnvAccountSecret+"=from-file\n"+EnvGoogleAPIKey+"=g-key\n")

	cfg := Default()
	if err := cfg.LoadEnv(env); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.Credentials.ID != "writer" {
		t.Errorf("id: got %q", cfg.Credentials.ID)
	}
	if cfg.Credentials.Secret != "from-process" {
		t.Errorf("process env should win: got %q", cfg.Credentials.Secret)
	}
	if cfg.Compose.APIKey != "g-key" {
		t.Errorf("api key: got %q", cfg.Compose.APIKey)
	}
	if !cfg.Credentials.Valid() {
		t.Error("credentials should be valid")
	}
}

func TestLoadEnv_MissingFile(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestCredentials_Redacted(t *testing.T) {
	c := Credentials{ID: "writer", Secret: "hunter2"}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("login", "account", c)
	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "writer") {
		t.Errorf("log leaks credentials: %s", out)
	}
	if !strings.Contains(out, `"secret_set":true`) {
		t.Errorf("log should report secret presence: %s", out)
	}

	for _, s := range []string{c.String(), fmt.Sprint(c), fmt.Sprintf("%v", c)} {
		if strings.Contains(s, "hunter2") {
			t.Errorf("string form leaks secret: %s", s)
		}
	}
}
