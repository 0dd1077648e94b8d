package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig_DisabledWithoutSecret(t *testing.T) {
	cfg, err := NewJWTConfig(ServerConfig{Port: 8080})
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestNewJWTConfig_Expiration(t *testing.T) {
	tests := []struct {
		name          string
		hours         int
		expectedHours int
		wantErr       bool
	}{
		{name: "default when unset", hours: 0, expectedHours: 24},
		{name: "custom 12 hours", hours: 12, expectedHours: 12},
		{name: "one week", hours: 168, expectedHours: 168},
		{name: "negative", hours: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewJWTConfig(ServerConfig{JWTSecret: "test-secret-key", JWTExpirationHours: tt.hours})
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), "jwt_expiration_hours")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "test-secret-key", cfg.Secret)
			assert.Equal(t, tt.expectedHours, cfg.ExpirationHours)
		})
	}
}
