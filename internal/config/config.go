// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every externally supplied setting. Values come from the
// environment; defaults match the reference deployment.
type Config struct {
	// Gameplay windows and limits.
	PlayTimeoutSeconds int `env:"PLAY_TIMEOUT_SECONDS" envDefault:"120"`
	WireTimeoutSeconds int `env:"WIRE_TIMEOUT_SECONDS" envDefault:"120"`
	HandSize           int `env:"HAND_SIZE" envDefault:"5"`
	MinHumans          int `env:"MIN_HUMANS" envDefault:"1"`
	RoomTTLMinutes     int `env:"ROOM_TTL_MINUTES" envDefault:"180"`

	// AI seats.
	AIEnabled        bool    `env:"AI_ENABLED" envDefault:"true"`
	AIBackendURL     string  `env:"AI_BACKEND_URL"`
	AIModel          string  `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	AIAPIKey         string  `env:"AI_API_KEY"`
	AITimeoutSeconds int     `env:"AI_TIMEOUT_SECONDS" envDefault:"20"`
	AIRetries        int     `env:"AI_RETRIES" envDefault:"2"`
	AIMaxClaim       int     `env:"AI_MAX_CLAIM" envDefault:"3"`
	AITauntProb      float64 `env:"AI_TAUNT_PROB" envDefault:"0.3"`

	// Persistence.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	SnapshotPath string `env:"SNAPSHOT_PATH" envDefault:"liarsbar_state.json"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKey     string `env:"REDIS_KEY" envDefault:"liarsbar:snapshot"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"liarsbar.db"`

	// Process.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parsed configuration once at startup.
func (c *Config) Validate() error {
	if c.PlayTimeoutSeconds <= 0 {
		return fmt.Errorf("PLAY_TIMEOUT_SECONDS must be positive, got %d", c.PlayTimeoutSeconds)
	}
	if c.WireTimeoutSeconds <= 0 {
		return fmt.Errorf("WIRE_TIMEOUT_SECONDS must be positive, got %d", c.WireTimeoutSeconds)
	}
	if c.HandSize <= 0 {
		return fmt.Errorf("HAND_SIZE must be positive, got %d", c.HandSize)
	}
	if c.MinHumans < 1 {
		return fmt.Errorf("MIN_HUMANS must be at least 1, got %d", c.MinHumans)
	}
	if c.AIMaxClaim < 1 {
		return fmt.Errorf("AI_MAX_CLAIM must be at least 1, got %d", c.AIMaxClaim)
	}
	if c.AITauntProb < 0 || c.AITauntProb > 1 {
		return fmt.Errorf("AI_TAUNT_PROB must be in [0,1], got %v", c.AITauntProb)
	}
	switch c.StoreBackend {
	case "file", "redis", "sqlite":
	default:
		return fmt.Errorf("STORE_BACKEND must be file, redis or sqlite, got %q", c.StoreBackend)
	}
	return nil
}

// PlayTimeout returns the play window as a duration.
func (c *Config) PlayTimeout() time.Duration {
	return time.Duration(c.PlayTimeoutSeconds) * time.Second
}

// WireTimeout returns the wire-cut window as a duration.
func (c *Config) WireTimeout() time.Duration {
	return time.Duration(c.WireTimeoutSeconds) * time.Second
}

// AITimeout returns the per-call reasoning backend timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

// RoomTTL returns how long a Waiting room may idle before it is swept.
func (c *Config) RoomTTL() time.Duration {
	return time.Duration(c.RoomTTLMinutes) * time.Minute
}
