package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "agriguard.db", cfg.Store.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)

	// Canonical weight table.
	assert.Equal(t, 60, cfg.Risk.FarmerMissingWeight)
	assert.Equal(t, 80, cfg.Risk.DealerMissingWeight)
	assert.Equal(t, 40, cfg.Risk.LicenseInactiveWeight)
	assert.Equal(t, 50, cfg.Risk.NoRelationshipWeight)
	assert.Equal(t, 1.8, cfg.Risk.ExtremeRatio)
	assert.Equal(t, 0.6, cfg.Risk.LowRatio)
	assert.Equal(t, 80, cfg.Risk.BlockAbove)
	assert.Equal(t, 60, cfg.Risk.ReviewAbove)
	assert.Equal(t, 30, cfg.Risk.MonitorAbove)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AGRIGUARD_STORE_DRIVER", "postgres")
	t.Setenv("AGRIGUARD_STORE_DATABASE_URL", "postgres://localhost/agriguard")
	t.Setenv("AGRIGUARD_SERVER_PORT", "9090")
	t.Setenv("AGRIGUARD_RISK_BLOCK_ABOVE", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/agriguard", cfg.Store.DatabaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90, cfg.Risk.BlockAbove)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "verbose"}))
}
