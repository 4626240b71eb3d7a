package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/smartroom")
	t.Setenv("JWT_SECRET", "secret")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.PastGrace)
	assert.Equal(t, 6*time.Second, cfg.DeleteGrace)
	assert.Equal(t, int64(500)<<20, cfg.MaxVideoSizeBytes)
	assert.Equal(t, "Asia/Jerusalem", cfg.Location.String())
	assert.True(t, cfg.MigrationsEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PROD_ORIGINS", "https://rooms.example.org")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DELETE_GRACE_PERIOD", "10s")
	t.Setenv("MIGRATIONS_ENABLED", "false")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "https://rooms.example.org", cfg.ProdOrigins)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 10*time.Second, cfg.DeleteGrace)
	assert.False(t, cfg.MigrationsEnabled)
}

func TestFromEnvErrors(t *testing.T) {
	t.Run("missing DSN", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "secret")
		_, err := fromEnv()
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("production without origins", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_ENV", "prod")
		t.Setenv("PROD_ORIGINS", "")
		_, err := fromEnv()
		assert.ErrorContains(t, err, "PROD_ORIGINS")
	})

	t.Run("bad timezone", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TIMEZONE", "Mars/Olympus")
		_, err := fromEnv()
		assert.ErrorContains(t, err, "TIMEZONE")
	})

	t.Run("negative grace", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PAST_GRACE", "-1m")
		_, err := fromEnv()
		assert.ErrorContains(t, err, "PAST_GRACE")
	})

	t.Run("bad bcrypt cost", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BCRYPT_COST", "twelve")
		_, err := fromEnv()
		assert.ErrorContains(t, err, "BCRYPT_COST")
	})
}
