package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() Config {
	var cfg Config
	cfg.App.Host = "127.0.0.1"
	cfg.App.Port = 5000
	cfg.Payments.ServiceFeePct = 0.15
	cfg.Payments.HouseAccount = "sfcars"
	cfg.Billing.SweepSeconds = 300
	cfg.Search.DefaultSort = "distance"
	cfg.RateLimit.PerSecond = 50
	cfg.RateLimit.Burst = 100
	return cfg
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := sampleConfig()
	require.NoError(t, SaveAtomic(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	cfg := sampleConfig()
	cfg.App.Port = 0
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	assert.Error(t, err)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := sampleConfig()
	cfg.Search.DefaultSort = "  Price "

	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Equal(t, "price", out.Search.DefaultSort)
}

func TestValidateCatchesBadValues(t *testing.T) {
	cfg := sampleConfig()
	cfg.Payments.ServiceFeePct = 1.5
	cfg.Billing.SweepSeconds = 0
	cfg.Search.DefaultSort = "rating"

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 3)
}

func TestEnsureUserConfigCopiesDefault(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "default.yml")
	require.NoError(t, SaveAtomic(defaultPath, sampleConfig()))

	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	// Second call leaves the existing user config alone.
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	cfg := sampleConfig()
	OverlayEnv(&cfg)
	assert.Equal(t, 8080, cfg.App.Port)
}
