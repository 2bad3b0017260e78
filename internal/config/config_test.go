package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, 60, cfg.Research.SectionTimeoutSecs)
	assert.Equal(t, 120, cfg.Research.CompetitorTimeoutSecs)
	assert.True(t, cfg.Research.EnableAdEnrichment)
	assert.True(t, cfg.Research.EnablePricingScrape)
	assert.Equal(t, 10, cfg.AdLibrary.PerPlatformLimit)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.InDelta(t, 0.005, cfg.Pricing.Perplexity.PerQuery, 1e-9)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
perplexity:
  model: sonar
research:
  section_timeout_secs: 30
  enable_pricing_scrape: false
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sonar", cfg.Perplexity.Model)
	assert.Equal(t, 30, cfg.Research.SectionTimeoutSecs)
	assert.False(t, cfg.Research.EnablePricingScrape)
	// Unset keys keep defaults.
	assert.Equal(t, 120, cfg.Research.CompetitorTimeoutSecs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	t.Setenv("BLUEPRINT_PERPLEXITY_KEY", "pplx-test")
	t.Setenv("BLUEPRINT_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pplx-test", cfg.Perplexity.Key)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
