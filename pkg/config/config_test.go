package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	// 策略配置走 Defaults()
	assert.Equal(t, 12, cfg.Strategy.WarmupRounds)
	assert.Equal(t, 0.95, cfg.Strategy.PayoutFactor)
}

func TestLoadFromYAML(t *testing.T) {
	p := writeConfig(t, `
log:
  level: debug
httpAddr: 0.0.0.0:9999
feed:
  baseUrl: http://feed.local
  tables: [a, b]
strategy:
  warmupRounds: 5
  kellyFraction: 0.5
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"a", "b"}, cfg.Feed.Tables)
	assert.Equal(t, 5, cfg.Strategy.WarmupRounds)
	assert.Equal(t, 0.5, cfg.Strategy.KellyFraction)
	// 未显式配置的字段仍走默认值
	assert.Equal(t, -10.0, cfg.Strategy.StopLossUnits)
}

func TestEnvOverridesFile(t *testing.T) {
	p := writeConfig(t, `
httpAddr: 127.0.0.1:8080
feed:
  tables: [a]
`)
	t.Setenv("HTTP_ADDR", "127.0.0.1:7000")
	t.Setenv("FEED_TABLES", "x, y ,z")
	t.Setenv("WARMUP_ROUNDS", "3")

	cfg, err := LoadFromFile(p)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.HTTPAddr)
	assert.Equal(t, []string{"x", "y", "z"}, cfg.Feed.Tables)
	assert.Equal(t, 3, cfg.Strategy.WarmupRounds)
}

func TestInvalidStrategyRejected(t *testing.T) {
	p := writeConfig(t, `
strategy:
  ensembleMode: sometimes
`)
	_, err := LoadFromFile(p)
	assert.Error(t, err)
}

func TestMissingFileFails(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}
