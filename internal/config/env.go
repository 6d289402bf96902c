// Package config loads process settings shared by the paperchase commands.
// Game rules and card content live in YAML files; this package only decides
// where to find them and how the process runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings are the process-level knobs read from PAPERCHASE_* variables.
// Command-line flags override them.
type Settings struct {
	ConfigPath   string `env:"PAPERCHASE_CONFIG"        envDefault:"data/config.yaml"`
	ContentPath  string `env:"PAPERCHASE_CONTENT"       envDefault:"data/content.yaml"`
	Games        int    `env:"PAPERCHASE_GAMES"         envDefault:"100"`
	Seed         int64  `env:"PAPERCHASE_SEED"`
	Workers      int    `env:"PAPERCHASE_WORKERS"`
	DBPath       string `env:"PAPERCHASE_DB"`
	OTelEndpoint string `env:"PAPERCHASE_OTEL_ENDPOINT"`
	Verbose      bool   `env:"PAPERCHASE_VERBOSE"`
	WebPort      int    `env:"PAPERCHASE_WEB_PORT"      envDefault:"8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file from the working directory, then parses
// Settings from the environment. Variables already set win over .env.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("load .env: %w", err)
	}
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	return s, nil
}
