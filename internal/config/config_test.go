package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "procurement_analytics", cfg.Database.Database)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "ml.model.updates", cfg.Kafka.Topics.ModelUpdates)
	assert.Equal(t, "automl", cfg.AutoML.Binary)
	assert.Equal(t, 3, cfg.AutoML.MaxIterations)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("environment: production\nserver:\n  port: 9999\nkafka:\n  enabled: true\n  brokers:\n    - localhost:9092\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
