package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_DECIMALS", "18")
	t.Setenv("NORMALIZE_GROUP_LOCATIONS", "true")
	t.Setenv("SNAPSHOT_CACHE_TTL", "45s")
	t.Setenv("ALLOWED_ORIGINS", "https://yoga.example, https://admin.yoga.example ,")
	t.Setenv("ESCROW_CONTRACT_ADDRESS", " 0xABCDEF ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, int32(18), cfg.Pipeline.TokenDecimals)
	assert.True(t, cfg.Pipeline.NormalizeLocations)
	assert.Equal(t, 45*time.Second, cfg.Dashboard.SnapshotCacheTTL)
	assert.Equal(t, []string{"https://yoga.example", "https://admin.yoga.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "0xabcdef", cfg.Ledger.ContractAddress)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_DECIMALS", "-4")
	t.Setenv("RELAYER_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, int32(6), cfg.Pipeline.TokenDecimals)
	assert.False(t, cfg.Pipeline.NormalizeLocations)
	assert.Equal(t, 15*time.Second, cfg.Relayer.Timeout)
	assert.Equal(t, 2, cfg.Actions.WorkerConcurrency)
}
