package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "backend:\n  url: ws://example.test/ws\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ws://example.test/ws", cfg.Backend.URL)
	require.Equal(t, "http://localhost", cfg.Backend.Origin)
	require.Equal(t, 5*time.Second, cfg.Backend.DialTimeout)
	require.Equal(t, 30*time.Second, cfg.Backend.PingInterval)
	require.Equal(t, 8*time.Second, cfg.Store.ErrorTTL)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.False(t, cfg.Journal.Enabled)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DASHSYNC_TEST_HOST", "10.0.0.9")
	path := writeConfig(t, "backend:\n  url: ws://${DASHSYNC_TEST_HOST}:8721/ws\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "ws://10.0.0.9:8721/ws", cfg.Backend.URL)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-websocket scheme", "backend:\n  url: http://example.test/ws\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestEnabledSectionsGetDefaults(t *testing.T) {
	path := writeConfig(t, `
journal:
  enabled: true
mirror:
  enabled: true
metrics:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dashsync-journal.db", cfg.Journal.Path)
	require.Equal(t, "nats://127.0.0.1:4222", cfg.Mirror.URL)
	require.Equal(t, ":9821", cfg.Metrics.Listen)
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())

	cfg.Logging.Level = "debug"
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.Logging.Level = "warn"
	require.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	cfg.Logging.Level = "error"
	require.Equal(t, slog.LevelError, cfg.SlogLevel())
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestInitRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashsync.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	// The generated file loads cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}
