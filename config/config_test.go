package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TIANLI0/FloorKit/floor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: ":9090"
  mode: release
redis:
  ttl: 1h
pipeline:
  max_concurrent: 4
floor:
  fusion_mode: or
  subtract_furniture: false
  use_tta: true
  close_radius: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, 30, cfg.Pipeline.QueueTimeout)

	opts, err := cfg.Floor.Options()
	require.NoError(t, err)
	assert.Equal(t, floor.FusionOr, opts.FusionMode)
	assert.False(t, opts.SubtractFurniture)
	assert.True(t, opts.UseTTA)
	assert.Equal(t, 2, opts.CloseRadius)
	assert.Equal(t, 512, opts.InputSize)
	assert.Equal(t, floor.DefaultOptions().FurnitureClassIndices, opts.FurnitureClassIndices)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FLOORKIT_SERVER_PORT", ":7070")
	cfg, err := Load(writeConfig(t, "server:\n  port: \":9090\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := loadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, getDefaultConfig(), cfg)

	// 参数非法时不回退到默认配置，其他段落也不会被悄悄重置
	cfg, err = loadOrDefault(writeConfig(t, "redis:\n  addr: redis:6380\nfloor:\n  fusion_mode: xor\n"))
	assert.ErrorIs(t, err, floor.ErrConfiguration)
	assert.Nil(t, cfg)

	cfg, err = loadOrDefault(writeConfig(t, "redis:\n  addr: redis:6380\n"))
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}

func TestLoadInvalidFloorOptions(t *testing.T) {
	_, err := Load(writeConfig(t, "floor:\n  fusion_mode: xor\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, floor.ErrConfiguration)

	_, err = Load(writeConfig(t, "floor:\n  norm_mean: [0.5, 0.5]\n"))
	assert.ErrorIs(t, err, floor.ErrConfiguration)
}

func TestDefaultFloorConfigMatchesPipelineDefaults(t *testing.T) {
	opts, err := getDefaultConfig().Floor.Options()
	require.NoError(t, err)
	assert.Equal(t, floor.DefaultOptions().Fingerprint(), opts.Fingerprint())
}

func TestFloorConfigPreset(t *testing.T) {
	fc := defaultFloorConfig()
	fc.Preset = "lenient"
	opts, err := fc.Options()
	require.NoError(t, err)
	assert.Equal(t, floor.FusionOr, opts.FusionMode)
	assert.Equal(t, 0, opts.ErodeIterations)

	fc.Preset = "unknown"
	_, err = fc.Options()
	assert.ErrorIs(t, err, floor.ErrConfiguration)
}
