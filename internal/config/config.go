// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store driver names.
const (
	StoreDriverFile     = "file"
	StoreDriverMemory   = "memory"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	AppPort     int    `env:"APP_PORT" envDefault:"8080"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"mailsmith"`

	// Persistence. The file driver needs DATA_DIR; redis and postgres
	// need their respective URLs.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"file"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Quota
	FreeDailyLimit int64 `env:"FREE_DAILY_LIMIT" envDefault:"10"`

	// Generative backend (OpenAI-compatible)
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMAPIKey  string        `env:"LLM_API_KEY"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file store driver")
		}
	case StoreDriverMemory:
		// Nothing to check; state is lost on restart.
	case StoreDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store driver")
		}
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	if c.FreeDailyLimit <= 0 {
		return fmt.Errorf("FREE_DAILY_LIMIT must be positive, got %d", c.FreeDailyLimit)
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
