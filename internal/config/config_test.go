package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ripple.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":3000"
  max_sessions: 50
  shutdown_timeout: 5s
  heartbeat_interval: 10s
log:
  level: debug
  format: json
metrics:
  enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, 50, cfg.Server.MaxSessions)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, 10*time.Second, cfg.Server.HeartbeatInterval.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	// Unset fields keep their defaults
	assert.Equal(t, 100, cfg.Server.FlushBudget)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ripple.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  shutdown_timeout: banana
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ripple.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: loud
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RIPPLE_ADDR", ":4000")
	t.Setenv("RIPPLE_LOG_LEVEL", "error")
	t.Setenv("RIPPLE_MAX_SESSIONS", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Server.Address)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Server.MaxSessions)
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()

	cfg.Log.Level = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.Log.Level = "warn"
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	cfg.Log.Level = "error"
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())
	cfg.Log.Level = "info"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
