package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	FailurePolicyExit     = "exit"
	FailurePolicyContinue = "continue"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Refresh   RefreshConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Type          string `env:"STORAGE_TYPE" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"../db/metrics.db"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	FailurePolicy string `env:"STORAGE_FAILURE_POLICY" envDefault:"exit"`
}

type RefreshConfig struct {
	Interval      time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	SourceBaseURL string        `env:"SOURCE_BASE_URL" envDefault:"https://blockchain.info"`
}

type LogConfig struct {
	Dir     string `env:"LOG_DIR" envDefault:"../log"`
	File    string `env:"LOG_FILE" envDefault:"webService.log"`
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Console bool   `env:"LOG_CONSOLE" envDefault:"true"`
}

// RateLimitConfig limits inbound HTTP requests per client. RPS of zero disables it.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case StorageSQLite:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORAGE_TYPE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	switch c.Storage.FailurePolicy {
	case FailurePolicyExit, FailurePolicyContinue:
	default:
		return fmt.Errorf("unknown storage failure policy: %s", c.Storage.FailurePolicy)
	}

	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.Refresh.Interval)
	}
	return nil
}
