package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// t.Setenv isolates the environment for this test.
	t.Setenv("APP_ENV", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("FREE_DAILY_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppEnv != "development" || !cfg.IsDevelopment() {
		t.Errorf("AppEnv = %q, want development", cfg.AppEnv)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("AppPort = %d, want 8080", cfg.AppPort)
	}
	if cfg.ServiceName != "mailsmith" {
		t.Errorf("ServiceName = %q, want mailsmith", cfg.ServiceName)
	}
	if cfg.StoreDriver != StoreDriverFile || cfg.DataDir != "./data" {
		t.Errorf("store defaults = %q/%q, want file/./data", cfg.StoreDriver, cfg.DataDir)
	}
	if cfg.FreeDailyLimit != 10 {
		t.Errorf("FreeDailyLimit = %d, want 10", cfg.FreeDailyLimit)
	}
	if cfg.LLMModel != "gpt-4o-mini" || cfg.LLMTimeout != 60*time.Second {
		t.Errorf("LLM defaults = %q/%v", cfg.LLMModel, cfg.LLMTimeout)
	}
	if cfg.MaxRequestBodySize != 1048576 {
		t.Errorf("MaxRequestBodySize = %d, want 1MB", cfg.MaxRequestBodySize)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FREE_DAILY_LIMIT", "25")
	t.Setenv("LLM_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.IsProduction() || cfg.AppPort != 9090 {
		t.Errorf("env/port = %q/%d, want production/9090", cfg.AppEnv, cfg.AppPort)
	}
	if cfg.StoreDriver != StoreDriverRedis || cfg.RedisURL == "" {
		t.Errorf("store = %q/%q", cfg.StoreDriver, cfg.RedisURL)
	}
	if cfg.FreeDailyLimit != 25 {
		t.Errorf("FreeDailyLimit = %d, want 25", cfg.FreeDailyLimit)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreDriver:    StoreDriverFile,
			DataDir:        "./data",
			FreeDailyLimit: 10,
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid file driver", mutate: func(c *Config) {}, wantErr: false},
		{name: "file driver without data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: true},
		{name: "memory driver needs nothing", mutate: func(c *Config) { c.StoreDriver = StoreDriverMemory }, wantErr: false},
		{name: "redis driver without url", mutate: func(c *Config) { c.StoreDriver = StoreDriverRedis }, wantErr: true},
		{
			name: "redis driver with url",
			mutate: func(c *Config) {
				c.StoreDriver = StoreDriverRedis
				c.RedisURL = "redis://localhost:6379"
			},
			wantErr: false,
		},
		{name: "postgres driver without url", mutate: func(c *Config) { c.StoreDriver = StoreDriverPostgres }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "etcd" }, wantErr: true},
		{name: "zero daily limit", mutate: func(c *Config) { c.FreeDailyLimit = 0 }, wantErr: true},
		{name: "negative daily limit", mutate: func(c *Config) { c.FreeDailyLimit = -1 }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
