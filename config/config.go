// Package config holds the process-wide configuration, parsed from the
// environment once at startup.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven configuration. The provider is the
// injected model strategy; recognized values are openai and google.
type Config struct {
	Provider        string `env:"REDLINE_PROVIDER" envDefault:"openai"`
	Model           string `env:"REDLINE_MODEL"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	MaxToolRounds   int    `env:"REDLINE_MAX_TOOL_ROUNDS" envDefault:"50"`
	ToolOutputLimit int    `env:"REDLINE_TOOL_OUTPUT_LIMIT" envDefault:"50000"`
	WikiBaseURL     string `env:"REDLINE_WIKI_URL"`
	WikiToken       string `env:"REDLINE_WIKI_TOKEN"`
	GitHubToken     string `env:"GITHUB_TOKEN"`
}

// Load parses configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks recognized option values.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai", "google":
		return nil
	default:
		return fmt.Errorf("unrecognized provider %q (expected openai or google)", c.Provider)
	}
}

// APIKey returns the key for the configured provider. May be empty; the
// openai backend also reads its own environment variable.
func (c Config) APIKey() string {
	switch c.Provider {
	case "google":
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}
