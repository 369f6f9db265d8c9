package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/perflog"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PERFLOG_TEST_ADDR", "127.0.0.1:9999")
	path := writeFile(t, filepath.Join(t.TempDir(), "perflog.yaml"), `
metrics:
  cls: false
  debug: true
  fid_policy: duration
output:
  mode: json
  palette: nord
  destination: stderr
  colors:
    tbt: "#123456"
serve:
  addr: ${PERFLOG_TEST_ADDR}
  max_sessions: 8
  session_ttl: 5m
  allowed_origins:
    - https://app.example
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	resolved := perflog.Resolve(cfg.Metrics)
	assert.False(t, resolved.CLS)
	assert.True(t, resolved.Debug)
	assert.True(t, resolved.DCL)
	assert.Equal(t, perflog.FirstInputDuration, resolved.FirstInput)

	assert.Equal(t, "json", cfg.Output.Mode)
	assert.Equal(t, "nord", cfg.Output.Palette)
	assert.Equal(t, "stderr", cfg.Output.Destination)
	assert.Equal(t, map[string]string{"tbt": "#123456"}, cfg.Output.Colors)

	assert.Equal(t, "127.0.0.1:9999", cfg.Serve.Addr)
	assert.Equal(t, 8, cfg.Serve.MaxSessions)
	assert.Equal(t, 5*time.Minute, cfg.Serve.SessionTTL)
	assert.Equal(t, []string{"https://app.example"}, cfg.Serve.AllowedOrigins)
}

func TestLoadConfigErrors(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "configuration file not found")

	bad := writeFile(t, filepath.Join(t.TempDir(), "bad.yaml"), "metrics: [\n")
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "failed to unmarshal config")

	policy := writeFile(t, filepath.Join(t.TempDir(), "policy.yaml"), "metrics:\n  fid_policy: sometimes\n")
	_, err = LoadConfig(policy)
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := isolate(t)
	const key = "PERFLOG_TEST_FROM_DOTENV"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	loaded, err := loadEnvFiles(nil)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	writeFile(t, filepath.Join(dir, ".env"), key+"=from-dotenv\n")
	loaded, err = loadEnvFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{".env"}, loaded)
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	_, err = loadEnvFiles([]string{filepath.Join(dir, "missing.env")})
	assert.Error(t, err)
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PERFLOG_TEST_PRESET", "process")
	env := writeFile(t, filepath.Join(dir, "x.env"), "PERFLOG_TEST_PRESET=file\n")
	_, err := loadEnvFiles([]string{env})
	require.NoError(t, err)
	assert.Equal(t, "process", os.Getenv("PERFLOG_TEST_PRESET"))
}
