package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/logging"
)

// loadConfig reads the config file named by --config, or defaults and environment only.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	opts := logging.Options{Level: cfg.Level, Format: cfg.Format, File: cfg.File}
	if verbose {
		opts.Level = "debug"
	}
	return logging.New(opts)
}
