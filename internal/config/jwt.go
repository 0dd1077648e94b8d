package config

import (
	"fmt"
)

// JWTConfig holds configuration for validating bearer tokens on the HTTP trigger.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds the JWT configuration from the server settings.
// It returns (nil, nil) when no secret is configured, meaning auth is disabled.
func NewJWTConfig(server ServerConfig) (*JWTConfig, error) {
	if server.JWTSecret == "" {
		return nil, nil
	}

	cfg := &JWTConfig{
		Secret:          server.JWTSecret,
		ExpirationHours: server.JWTExpirationHours,
	}
	if cfg.ExpirationHours == 0 {
		cfg.ExpirationHours = 24
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.ExpirationHours < 1 {
		return fmt.Errorf("jwt_expiration_hours must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
