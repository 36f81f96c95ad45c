package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAppEnv, AppEnvDev)
	t.Setenv("DJASSA_APP_PORT", "8080")
	t.Setenv("DJASSA_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DJASSA_DB_DSN", "host=localhost user=djassa dbname=djassa sslmode=disable")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, "SIMULATION", cfg.Payment.Mode)
	assert.Equal(t, 250, cfg.Payment.PlatformCommissionBps)
	assert.Equal(t, 150, cfg.Payment.OrangeGatewayFeeBps)
	assert.Equal(t, 180, cfg.Payment.MTNGatewayFeeBps)
	assert.Equal(t, 200, cfg.Payment.MoovGatewayFeeBps)
	assert.Equal(t, 100, cfg.BuyBox.ReferenceStock)
	assert.InDelta(t, 0.40, cfg.BuyBox.StockWeight, 1e-9)
	assert.InDelta(t, 0.35, cfg.BuyBox.DistanceWeight, 1e-9)
	assert.InDelta(t, 0.25, cfg.BuyBox.RatingWeight, 1e-9)
}

func TestEnsureDSNFromParts(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DJASSA_DB_DSN", "")
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "djassa")
	t.Setenv(EnvDBName, "djassa")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.DB.DSN, "host=db.internal")
	assert.Contains(t, cfg.DB.DSN, "dbname=djassa")
}

func TestEnsureDSNMissingParts(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DJASSA_DB_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDBHost)
}
