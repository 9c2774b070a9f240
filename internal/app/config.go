package app

import (
	"errors"
	"log/slog"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // analytics configuration file (.hcl)

	// Fields overrides the configuration's requested fields when
	// non-empty.
	Fields []string

	LogFormat   string
	LogLevel    string
	WorkerCount int

	level slog.Level // parsed from LogLevel by NewConfig
}

// NewConfig validates and returns the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.level = level
	return &cfg, nil
}
