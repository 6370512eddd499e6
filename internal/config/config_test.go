package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0 */30 * * * *", cfg.Daemon.Cron)
	assert.Equal(t, 5, cfg.Daemon.BatchSize)
	assert.Equal(t, []string{"funcion_judicial"}, cfg.Daemon.PageCodes)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, "reports", cfg.ReportDir)
	assert.Equal(t, "default", cfg.Runner.ProfileName)
	assert.Equal(t, 2*time.Hour, cfg.StaleAge())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checktrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
runner:
  url: http://runner.local:8000
  profile_name: staging
daemon:
  enabled: true
  cron: "0 */5 * * * *"
  batch_size: 10
  page_codes: [ruc, funcion_judicial]
  stale_threshold: 90m
metrics:
  addr: ":9191"
report_dir: /var/lib/checktrack/reports
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://runner.local:8000", cfg.Runner.URL)
	assert.Equal(t, "staging", cfg.Runner.ProfileName)
	assert.True(t, cfg.Daemon.Enabled)
	assert.Equal(t, "0 */5 * * * *", cfg.Daemon.Cron)
	assert.Equal(t, 10, cfg.Daemon.BatchSize)
	assert.Equal(t, []string{"ruc", "funcion_judicial"}, cfg.Daemon.PageCodes)
	assert.Equal(t, 90*time.Minute, cfg.StaleAge())
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
	assert.Equal(t, "/var/lib/checktrack/reports", cfg.ReportDir)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("RUNNER_URL", "http://override:8000")
	t.Setenv("METRICS_ADDR", ":7070")
	t.Setenv("DAEMON_ENABLED", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://override:8000", cfg.Runner.URL)
	assert.Equal(t, ":7070", cfg.Metrics.Addr)
	assert.True(t, cfg.Daemon.Enabled)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runner: [not a map"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestStaleAgeFallback(t *testing.T) {
	cfg := &Config{}
	cfg.Daemon.StaleThreshold = "not-a-duration"
	assert.Equal(t, 2*time.Hour, cfg.StaleAge())

	cfg.Daemon.StaleThreshold = "-5m"
	assert.Equal(t, 2*time.Hour, cfg.StaleAge())
}
