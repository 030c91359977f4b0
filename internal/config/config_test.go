package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper() {
	viper.Reset()
}

func TestLoadDefaults(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(16*1024*1024), cfg.CacheSizeBytes)
	assert.True(t, cfg.AutoUnwrapContainers)
	assert.Equal(t, []string{"clonecd", "qcow"}, cfg.RegistryProbeOrder)
}

func TestLoadFromYAMLFile(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	yaml := "cache_size_bytes: 1048576\nauto_unwrap_containers: false\nregistry_probe_order:\n  - qcow\n  - clonecd\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "imagevault-config.yaml"), []byte(yaml), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), cfg.CacheSizeBytes)
	assert.False(t, cfg.AutoUnwrapContainers)
	assert.Equal(t, []string{"qcow", "clonecd"}, cfg.RegistryProbeOrder)
}

func TestLoadFromEnvOverride(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	os.Setenv("IMAGEVAULT_CACHE_SIZE_BYTES", "2048")
	defer os.Unsetenv("IMAGEVAULT_CACHE_SIZE_BYTES")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(2048), cfg.CacheSizeBytes)
}
