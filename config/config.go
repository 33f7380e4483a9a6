package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	// PORT (Render, Fly.io, Railway, etc.) wins over RGS_PORT.
	Port    int `env:"PORT"`
	RGSPort int `env:"RGS_PORT" envDefault:"8081"`

	DataDir       string `env:"RGS_DATA_DIR" envDefault:"data"`
	HistoryDriver string `env:"HISTORY_DRIVER" envDefault:"file"` // file, postgres or sqlite
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/history.db"`

	// CrashProfile is an optional YAML file with the table math.
	// HouseEdge and GrowthK override it when set.
	CrashProfile string  `env:"CRASH_PROFILE"`
	HouseEdge    float64 `env:"HOUSE_EDGE"`
	GrowthK      float64 `env:"GROWTH_K"`

	InitialBalance decimal.Decimal `env:"INITIAL_BALANCE" envDefault:"1000"`
	MaxSessions    int             `env:"MAX_SESSIONS" envDefault:"10000"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 {
		cfg.Port = cfg.RGSPort
	}
	if cfg.Port <= 0 {
		cfg.Port = 8081
	}
	switch cfg.HistoryDriver {
	case "file", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("HISTORY_DRIVER %q: want file, postgres or sqlite", cfg.HistoryDriver)
	}
	if cfg.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("INITIAL_BALANCE must not be negative")
	}
	return cfg, nil
}
