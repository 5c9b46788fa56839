package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "fs", cfg.Source.Kind)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxResults)
	assert.Equal(t, 1, cfg.Search.DefaultDocFreq)
	assert.Equal(t, 64, cfg.Index.QueueSize)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
source:
  kind: postgres
search:
  defaultLimit: 5
  maxResults: 25
logging:
  level: debug
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Source.Kind)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadDurations(t *testing.T) {
	path := writeConfig(t, `
server:
  readTimeout: 45s
redis:
  cacheTTL: 2m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL.Std())
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "server:\n  readTimeout: fast\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidSourceKind(t *testing.T) {
	path := writeConfig(t, "source:\n  kind: s3\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source kind")
}

func TestLoadInvalidSearchLimits(t *testing.T) {
	path := writeConfig(t, "search:\n  defaultLimit: 50\n  maxResults: 10\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DS_SERVER_PORT", "7777")
	t.Setenv("DS_SOURCE_KIND", "postgres")
	t.Setenv("DS_KAFKA_ENABLED", "true")
	t.Setenv("DS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DS_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Source.Kind)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestPostgresDSN(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t,
		"host=localhost port=5432 user=docsearch password=localdev dbname=docsearch sslmode=disable",
		cfg.Postgres.DSN(),
	)
}
