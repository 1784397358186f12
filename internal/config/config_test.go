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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 2*time.Second, cfg.Stats.Timeout)
	assert.Equal(t, TracingNone, cfg.Tracing.Exporter)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
port: "7000"
storage: memory
stats:
  url: http://stats:9090
  timeout: 750ms
database:
  host: db
  max_conns: 5
rate_limit:
  rps: 3
  burst: 6
tracing:
  exporter: otlp
  endpoint: collector:4318
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))
	t.Setenv("PORT", "7100")
	t.Setenv("DB_NAME", "ewm")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Port, "env overrides file")
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "http://stats:9090", cfg.Stats.URL)
	assert.Equal(t, 750*time.Millisecond, cfg.Stats.Timeout)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "ewm", cfg.Database.Name)
	assert.Equal(t, int32(5), cfg.Database.MaxConns)
	assert.Equal(t, 3.0, cfg.RateLimit.RPS)
	assert.Equal(t, 6, cfg.RateLimit.Burst)
	assert.Equal(t, TracingOTLP, cfg.Tracing.Exporter)
	assert.Equal(t, "collector:4318", cfg.Tracing.Endpoint)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad storage", func(t *testing.T) {
		t.Setenv("STORAGE", "mongo")
		_, err := Load("")
		assert.ErrorContains(t, err, "storage")
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("STATS_TIMEOUT", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "STATS_TIMEOUT")
	})

	t.Run("bad tracing exporter", func(t *testing.T) {
		t.Setenv("TRACING_EXPORTER", "jaeger")
		_, err := Load("")
		assert.ErrorContains(t, err, "tracing exporter")
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		t.Setenv("STATS_TIMEOUT", "0s")
		_, err := Load("")
		assert.ErrorContains(t, err, "timeout")
	})
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{LogLevel: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warning"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: ""}.SlogLevel())
}
