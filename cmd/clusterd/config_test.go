package main

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
	path := filepath.Join(t.TempDir(), "clusterd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
dataset:
  backend: local
  path: /var/lib/clusterd
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "/var/lib/clusterd", cfg.Dataset.Path)
	assert.Equal(t, "local", cfg.Results.Backend)
	assert.Equal(t, "zstd", cfg.Results.Compression)
}

func TestLoadConfigFullFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
listen: ":9090"
log:
  level: debug
  format: json
dataset:
  backend: s3
  bucket: telemetry
  prefix: reduced/
results:
  backend: badger
  path: /var/lib/clusterd/results
cache:
  ttl: 2m
limits:
  load_slots: 8
  compute_slots: 2
  io_bytes_per_sec: 1048576
compute:
  remote_endpoint: http://compute.internal/cluster
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "s3", cfg.Dataset.Backend)
	assert.Equal(t, "telemetry", cfg.Dataset.Bucket)
	assert.Equal(t, "badger", cfg.Results.Backend)
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.Cache.TTL))
	assert.Equal(t, int64(8), cfg.Limits.LoadSlots)
	assert.Equal(t, int64(2), cfg.Limits.ComputeSlots)
	assert.Equal(t, "http://compute.internal/cluster", cfg.Compute.RemoteEndpoint)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
dataset:
  backend: gcs
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset backend")
}

func TestLoadConfigRejectsUnknownCompression(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
results:
  backend: local
  compression: brotli
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown compression")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
