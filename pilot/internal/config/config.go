// Package config loads the blogpilot configuration: a YAML file for
// everything that changes with the target site, and environment variables
// (optionally from a .env file) for secrets.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/blogpilot/sequence"
)

// Environment variables holding secrets. Secrets never come from the YAML
// file.
const (
	EnvAccountID     = "BLOGPILOT_ACCOUNT_ID"
	EnvAccountSecret = "BLOGPILOT_ACCOUNT_SECRET"
	EnvGoogleAPIKey  = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
)

// Config is the top-level blogpilot configuration.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Browser   BrowserConfig   `yaml:"browser"`
	Run       RunConfig       `yaml:"run"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Compose   ComposeConfig   `yaml:"compose"`
	Sheet     SheetConfig     `yaml:"sheet"`
	Store     StoreConfig     `yaml:"store"`
	HTTP      HTTPConfig      `yaml:"http"`

	// Credentials are filled from the environment by LoadEnv.
	Credentials Credentials `yaml:"-"`
}

// SiteConfig holds the target URLs.
type SiteConfig struct {
	LoginURL string `yaml:"login_url"`
	WriteURL string `yaml:"write_url"`
}

// BrowserConfig controls the Chrome session.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Bin              string        `yaml:"bin"`
	UserDataDir      string        `yaml:"user_data_dir"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          string        `yaml:"stealth"` // plain | headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
}

// RunConfig controls the sequencer.
type RunConfig struct {
	StepTimeout     time.Duration `yaml:"step_timeout"`
	PerCandidate    time.Duration `yaml:"per_candidate"`
	MinSlice        time.Duration `yaml:"min_slice"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	PopupTimeout    time.Duration `yaml:"popup_timeout"`
	CharDelay       time.Duration `yaml:"char_delay"`
	LoginSettle     time.Duration `yaml:"login_settle"`
	EditorSettle    time.Duration `yaml:"editor_settle"`
	SaveSettle      time.Duration `yaml:"save_settle"`
	SurveyOnFailure bool          `yaml:"survey_on_failure"`
}

// SelectorsConfig holds the ordered candidate lists of every target, most
// preferred first.
type SelectorsConfig struct {
	AccountField []sequence.Candidate `yaml:"account_field" json:"account_field"`
	SecretField  []sequence.Candidate `yaml:"secret_field" json:"secret_field"`
	LoginButton  []sequence.Candidate `yaml:"login_button" json:"login_button"`
	EditorReady  []sequence.Candidate `yaml:"editor_ready" json:"editor_ready"`
	EditorFrame  []sequence.Candidate `yaml:"editor_frame" json:"editor_frame"`
	Popups       []sequence.Candidate `yaml:"popups" json:"popups"`
	Title        []sequence.Candidate `yaml:"title" json:"title"`
	Body         []sequence.Candidate `yaml:"body" json:"body"`
	Save         []sequence.Candidate `yaml:"save" json:"save"`
	ConfirmSave  []sequence.Candidate `yaml:"confirm_save" json:"confirm_save"`
}

// ComposeConfig selects the text generation backend.
type ComposeConfig struct {
	Backend     string        `yaml:"backend"` // gemini | openai
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Prompt      string        `yaml:"prompt"`
	Attempts    int           `yaml:"attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	Pause       time.Duration `yaml:"pause"`

	// APIKey is filled from the environment by LoadEnv.
	APIKey string `yaml:"-"`
}

// SheetConfig locates the posting workbook.
type SheetConfig struct {
	Path        string `yaml:"path"`
	HeaderTitle string `yaml:"header_title"`
	HeaderBody  string `yaml:"header_body"`
}

// StoreConfig locates the run database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig controls the report server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Credentials is the login account. Its log and string forms never contain
// the secret.
type Credentials struct {
	ID     string
	Secret string
}

// Valid reports whether both parts are present.
func (c Credentials) Valid() bool { return c.ID != "" && c.Secret != "" }

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ID:%s Secret:%s}", mask(c.ID), mask(c.Secret))
}

// LogValue implements slog.LogValuer.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", mask(c.ID)),
		slog.Bool("secret_set", c.Secret != ""),
	)
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "<redacted>"
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file and applies defaults for every
// field it leaves empty.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load returns LoadFile(path), or Default when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadEnv reads secrets from the environment. When envFile is non-empty
// and exists, it is loaded first; variables already set in the process win.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("config: load %s: %w", envFile, err)
			}
		}
	}

	c.Credentials = Credentials{
		ID:     os.Getenv(EnvAccountID),
		Secret: os.Getenv(EnvAccountSecret),
	}
	switch c.Compose.Backend {
	case "openai":
		c.Compose.APIKey = os.Getenv(EnvOpenAIAPIKey)
	default:
		c.Compose.APIKey = os.Getenv(EnvGoogleAPIKey)
	}
	return nil
}

// Validate checks every candidate list.
func (c *Config) Validate() error {
	lists := map[string][]sequence.Candidate{
		"account_field": c.Selectors.AccountField,
		"secret_field":  c.Selectors.SecretField,
		"login_button":  c.Selectors.LoginButton,
		"editor_ready":  c.Selectors.EditorReady,
		"editor_frame":  c.Selectors.EditorFrame,
		"popups":        c.Selectors.Popups,
		"title":         c.Selectors.Title,
		"body":          c.Selectors.Body,
		"save":          c.Selectors.Save,
		"confirm_save":  c.Selectors.ConfirmSave,
	}
	for name, cands := range lists {
		for _, cand := range cands {
			if err := cand.Validate(); err != nil {
				return fmt.Errorf("config: selectors.%s: %w", name, err)
			}
		}
	}
	switch c.Compose.Backend {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config: compose.backend: unknown backend %q", c.Compose.Backend)
	}
	return nil
}
