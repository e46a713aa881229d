package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreFile       = "file"
	StoreRedis      = "redis"
	StorePocketBase = "pocketbase"
)

type Config struct {
	// Server configuration
	Port        string `env:"PORT" envDefault:"8787"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Snapshot storage
	StateStore string `env:"TEST12_STORE" envDefault:"file"`
	StatePath  string `env:"TEST12_STATE_PATH" envDefault:"./data/state.json"`

	// Admin credentials. The bcrypt hash wins when both are set.
	AdminToken     string `env:"TEST12_ADMIN_TOKEN"`
	AdminTokenHash string `env:"TEST12_ADMIN_TOKEN_HASH"`

	// Redis configuration
	RedisURL      string `env:"REDIS_URL"`
	RedisStateKey string `env:"REDIS_STATE_KEY" envDefault:"test12:state"`

	// Matching configuration
	RoomSize          int           `env:"ROOM_SIZE" envDefault:"13"`
	SessionDuration   time.Duration `env:"SESSION_DURATION" envDefault:"336h"`
	HeartbeatTTL      time.Duration `env:"HEARTBEAT_TTL" envDefault:"24h"`
	MaxFailedSessions int           `env:"MAX_FAILED_SESSIONS" envDefault:"3"`

	// Background work
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// Monitoring
	EnableMetrics bool   `env:"ENABLE_METRICS" envDefault:"true"`
	MetricsPort   string `env:"METRICS_PORT" envDefault:"9090"`
}

func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.RoomSize < 2 {
		errs = append(errs, fmt.Errorf("ROOM_SIZE must be at least 2, got %d", c.RoomSize))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_DURATION must be positive, got %s", c.SessionDuration))
	}
	if c.HeartbeatTTL < 0 {
		errs = append(errs, fmt.Errorf("HEARTBEAT_TTL must not be negative, got %s", c.HeartbeatTTL))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("SWEEP_INTERVAL must not be negative, got %s", c.SweepInterval))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.RateLimitPerMinute))
	}
	switch c.StateStore {
	case StoreFile:
		if c.StatePath == "" {
			errs = append(errs, errors.New("TEST12_STATE_PATH is required for the file store"))
		}
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	case StorePocketBase:
	default:
		errs = append(errs, fmt.Errorf("unknown TEST12_STORE %q", c.StateStore))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AdminEnabled reports whether any admin credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminToken != "" || c.AdminTokenHash != ""
}
