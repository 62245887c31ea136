package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("UPSTREAM_BASE_URL", "http://backend:8080/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.UpstreamBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.FilterDebounce)
	assert.Equal(t, 2*time.Second, cfg.FraudRefetchDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NotEmpty(t, cfg.TokenEncryptionKey)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.AllowedOrigins)
}

func TestLoad_ProductionRequiresKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_ENCRYPTION_KEY", "short")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://staymate.app")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_ENCRYPTION_KEY")
}

func TestLoad_ProductionRequiresOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TrimsOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.app, https://b.app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.app", "https://b.app"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "bff")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "staymate")

	assert.Equal(t, "postgres://bff:p%40ss@db:5432/staymate?sslmode=disable", getDatabaseURL())
}

func TestLoad_SessionStore(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_STORE", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.SessionStore)

	t.Setenv("SESSION_STORE", "sqlite")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://staymate.app")
	t.Setenv("SESSION_STORE", "memory")
	_, err = Load()
	assert.Error(t, err)
}
