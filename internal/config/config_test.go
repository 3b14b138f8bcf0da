package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defit-store/backend/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "defit")
	t.Setenv("ADMIN_PASSWORD", "sesame")
	t.Setenv("SESSION_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 10, cfg.App.LowStockThreshold)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("DB_MAX_CONNS", "25")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 3, cfg.App.LowStockThreshold)
	assert.Equal(t, int32(25), cfg.Postgres.MaxConns)
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := map[string]string{
		"DB_HOST":        "DB_HOST",
		"DB_USER":        "DB_USER",
		"DB_NAME":        "DB_NAME",
		"SESSION_SECRET": "SESSION_SECRET",
	}

	for name, unset := range cases {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(unset, "")

			_, err := config.Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), unset)
		})
	}
}

func TestLoad_RequiresSomeAdminSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := config.Load("")
	require.Error(t, err)

	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Admin.Password)
	assert.NotEmpty(t, cfg.Admin.PasswordHash)
}

func TestLoad_InvalidInteger(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOW_STOCK_THRESHOLD", "lots")

	_, err := config.Load("")
	require.Error(t, err)
}
