package pilot

import (
	"github.com/hazyhaar/blogpilot/pilot/internal/config"
)

// Config is the top-level blogpilot configuration. Re-exported from internal.
type Config = config.Config

// Credentials is the login account read from the environment.
type Credentials = config.Credentials

// SelectorsConfig holds the candidate lists of every target.
type SelectorsConfig = config.SelectorsConfig

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads the YAML file at path (defaults when empty), then the
// secrets from the environment and envFile.
func LoadConfig(path, envFile string) (*Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
