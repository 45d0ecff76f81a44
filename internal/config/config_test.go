package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "solifound.db", cfg.DatabasePath)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Minute, cfg.ViewStateTTL)
	assert.Equal(t, []string{"sistemas@fundacionsanezequiel.org"}, cfg.Admins())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com , ,ops@example.com")
	t.Setenv("VIEWSTATE_TTL", "5m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLAMD_ADDR", "tcp://localhost:3310")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"admin@example.com", "ops@example.com"}, cfg.Admins())
	assert.Equal(t, 5*time.Minute, cfg.ViewStateTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "tcp://localhost:3310", cfg.ClamdAddr)
}

func TestFromEnv_SQLiteRequiresLongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFromEnv_BcryptCostBounds(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("BCRYPT_COST", "20")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestFromEnv_REST(t *testing.T) {
	t.Setenv("BACKEND", "REST")
	t.Setenv("SERVICE_URL", "https://project.example.co")

	_, err := fromEnv()
	require.Error(t, err, "anon key is required")

	t.Setenv("SERVICE_ANON_KEY", "anon")
	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, BackendREST, cfg.Backend)
	assert.Equal(t, "anon", cfg.ServiceAnonKey)
}

func TestFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("BACKEND", "mongo")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}
