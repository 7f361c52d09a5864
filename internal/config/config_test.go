package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"SERVICE_ROLE", "SERVER_PORT", "HANDLER_URL", "DATABASE_URL", "REDIS_URL",
	"ENVIRONMENT", "JWT_SECRET", "TOKEN_TTL", "CACHE_TTL", "BCRYPT_COST",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParse_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "gateway", cfg.Role)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://handler:8081", cfg.HandlerURL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_ROLE", "handler")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "handler", cfg.Role)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestParse_DevSecret(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		env     string
		wantErr bool
	}{
		{"production handler", "handler", "production", true},
		{"staging handler", "handler", "staging", true},
		{"development handler", "handler", "development", false},
		{"production gateway", "gateway", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SERVICE_ROLE", tt.role)
			t.Setenv("ENVIRONMENT", tt.env)

			cfg, err := Parse()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDevSecret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DevJWTSecret, cfg.JWTSecret)
		})
	}
}

func TestParse_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "forever")

	_, err := Parse()

	assert.Error(t, err)
}

func TestNew_LoadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=7070\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.ServerPort)
}

func TestNew_WithoutDotEnv(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestIsGateway(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{"gateway", true},
		{"handler", false},
		{"other", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			cfg := &Config{Role: tt.role}
			assert.Equal(t, tt.expected, cfg.IsGateway())
		})
	}
}

func TestIsHandler(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{"gateway", false},
		{"handler", true},
		{"other", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			cfg := &Config{Role: tt.role}
			assert.Equal(t, tt.expected, cfg.IsHandler())
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Environment: tt.env}
			assert.Equal(t, tt.expected, cfg.IsDevelopment())
		})
	}
}
