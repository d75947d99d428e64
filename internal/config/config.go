package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"./printflow.db"`
	Env        string `env:"APP_ENV" envDefault:"dev"`
	AdminToken string `env:"ADMIN_TOKEN"`
	SeedDemo   bool   `env:"SEED_DEMO" envDefault:"false"`
}

// Load reads the optional .env file and then the process environment.
func Load() (Config, error) {
	// Best-effort: local dev convenience only. Production should use real
	// env injection.
	_ = loadDotEnv(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app runs in development mode; dev mode uses
// the human-readable console logger.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}
