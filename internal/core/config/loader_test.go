package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/faultline/internal/infra/rpc"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_PROBE_TARGET", "spanner.example.com:443")

	cfg, err := Load(writeConfig(t, `
probe:
  target: ${TEST_PROBE_TARGET}
  service: google.spanner.v1.Spanner
`))
	require.NoError(t, err)

	assert.Equal(t, "spanner.example.com:443", cfg.Probe.Target)
	assert.Equal(t, "google.spanner.v1.Spanner", cfg.Probe.Service)
}

func TestLoad_Durations(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
logging:
  level: debug
metrics:
  port: 9090
probe:
  timeout: 2s
  interval: 250ms
  attempts: 3
retry:
  max_attempts: 7
  initial_delay: 50ms
  max_delay: 10s
  backoff_multiple: 2
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 2*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.Interval)
	assert.Equal(t, 3, cfg.Probe.Attempts)
	assert.Equal(t, rpc.RetryConfig{
		MaxAttempts:     7,
		InitialDelay:    50 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffMultiple: 2,
	}, cfg.Retry)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "localhost:50051", cfg.Probe.Target)
	assert.Equal(t, rpc.DefaultRetryConfig, cfg.Retry)
	assert.Zero(t, cfg.Metrics.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "probe: [unclosed"))
	assert.Error(t, err)
}
