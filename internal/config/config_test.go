package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debtcollect.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 25, cfg.Pipeline.BatchLimit)
	assert.False(t, cfg.Pipeline.Simulate)
	assert.Equal(t, 2024, cfg.Pipeline.FreshnessYear)
	assert.Equal(t, 200, cfg.Pipeline.CleanupLimit)
	assert.Equal(t, 3, cfg.Retry.ProviderAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.Retry.ProviderSleep())
	assert.True(t, cfg.RPV.Enabled)
	assert.Equal(t, "one-api~skip-trace", cfg.Apify.Actor)
	assert.Equal(t, 3, cfg.Apify.MaxResults)
	assert.Equal(t, "https://api.hunter.io/v2", cfg.Hunter.BaseURL)
	assert.Equal(t, "https://lookups.twilio.com/v1", cfg.Twilio.BaseURL)
	assert.Equal(t, 30, cfg.Directus.TimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: directus
directus:
  url: https://cms.example.com
  token: tok
log:
  level: debug
  format: console
pipeline:
  simulate: true
  batch_limit: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "directus", cfg.Store.Driver)
	assert.Equal(t, "https://cms.example.com", cfg.Directus.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Pipeline.Simulate)
	assert.Equal(t, 5, cfg.Pipeline.BatchLimit)
	// Defaults still apply for unset values
	assert.Equal(t, 2024, cfg.Pipeline.FreshnessYear)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("DEBTCOLLECT_STORE_DRIVER", "postgres")
	t.Setenv("DEBTCOLLECT_LOG_LEVEL", "warn")
	t.Setenv("DEBTCOLLECT_PIPELINE_SIMULATE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Pipeline.Simulate)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "test.db"
	cfg.Pipeline.BatchLimit = 25
	cfg.Pipeline.FreshnessYear = 2024
	cfg.Retry.ProviderAttempts = 3
	cfg.Retry.ProviderSleepMs = 1500
	return cfg
}

func TestValidateEnrich_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("enrich"))
	assert.NoError(t, validDefaults().Validate("store"))
}

func TestValidateEnrich_Bounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Pipeline.BatchLimit = 0
	cfg.Retry.ProviderAttempts = 0
	cfg.Pipeline.FreshnessYear = 0

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.batch_limit must be > 0")
	assert.Contains(t, err.Error(), "retry.provider_attempts must be > 0")
	assert.Contains(t, err.Error(), "pipeline.freshness_year")
}

func TestValidateStore_Directus(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "directus"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directus.url is required")
	assert.Contains(t, err.Error(), "directus.token is required")

	cfg.Directus.URL = "https://cms"
	cfg.Directus.Token = "t"
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateStore_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql"`)
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DEBTCOLLECT_HUNTER_KEY", "hk")
	t.Setenv("DEBTCOLLECT_TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("DEBTCOLLECT_APIFY_TOKEN", "apify-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hk", cfg.Hunter.Key)
	assert.Equal(t, "AC1", cfg.Twilio.AccountSID)
	assert.Equal(t, "apify-token", cfg.Apify.Token)
}
