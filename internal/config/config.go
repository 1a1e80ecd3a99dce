package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	EmbedOllama = "ollama"
	EmbedNone   = "none"
)

// Config holds runtime settings read from STYLESHOP_* environment variables.
type Config struct {
	DB        Database  `envPrefix:"DB_"`
	Embedding Embedding `envPrefix:"EMBED_"`

	IndexFile string `env:"INDEX_FILE" envDefault:"./data/itemDB.csv"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE" envDefault:"./styleshop.log"`
	MaxTopK   int    `env:"MAX_TOP_K" envDefault:"10"`
	SeedRand  int64  `env:"SEED_RAND" envDefault:"1"`
}

// Database contains catalog store connection parameters.
type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:styleshop.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"`
}

// Embedding contains the text encoder parameters used by style search.
type Embedding struct {
	Provider string `env:"PROVIDER" envDefault:"ollama"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://127.0.0.1:11434"`
	Model    string `env:"MODEL" envDefault:"fashion-clip"`
	Prompt   string `env:"PROMPT" envDefault:"a photo of %s"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "STYLESHOP_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported STYLESHOP_DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("STYLESHOP_DB_DSN is required")
	}
	switch c.Embedding.Provider {
	case EmbedOllama, EmbedNone:
	default:
		return fmt.Errorf("unsupported STYLESHOP_EMBED_PROVIDER %q", c.Embedding.Provider)
	}
	if c.MaxTopK < 1 {
		return fmt.Errorf("STYLESHOP_MAX_TOP_K must be > 0, got %d", c.MaxTopK)
	}
	return nil
}
