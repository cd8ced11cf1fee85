package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Shell     ShellConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// ShellConfig holds shell session configuration.
type ShellConfig struct {
	Interpreter     string `envconfig:"SHELL_INTERPRETER" default:"/bin/sh"`
	InitialCwd      string `envconfig:"SHELL_CWD" default:""`
	HistoryCapacity int    `envconfig:"HISTORY_CAPACITY" default:"10000"`
	EventBuffer     int    `envconfig:"EVENT_BUFFER" default:"256"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	File        string `envconfig:"LOG_FILE" default:""`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Shell: ShellConfig{
			Interpreter:     "/bin/sh",
			HistoryCapacity: 10000,
			EventBuffer:     256,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
