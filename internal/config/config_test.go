package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shelfdata")
	t.Setenv(EnvDir, dir)

	cfg, err := Init()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8750", cfg.Listen)
	assert.Contains(t, cfg.VolumeRoots, "/Volumes")
	assert.FileExists(t, filepath.Join(dir, ConfigFile))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Listen, loaded.Listen)
	assert.Equal(t, filepath.Join(dir, DatabaseFile), loaded.DatabasePath())
}

func TestInitIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shelfdata")
	t.Setenv(EnvDir, dir)

	cfg, err := Init()
	require.NoError(t, err)

	// Customize and re-init; the existing config must survive.
	cfg.Listen = "127.0.0.1:9999"
	require.NoError(t, cfg.Save())

	again, err := Init()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", again.Listen)
}

func TestLoadWithoutInit(t *testing.T) {
	t.Setenv(EnvDir, filepath.Join(t.TempDir(), "nope"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shelfdata")
	t.Setenv(EnvDir, dir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("listen = \"0.0.0.0:8000\"\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8000", cfg.Listen)
	// Unspecified fields keep their defaults.
	assert.NotEmpty(t, cfg.VolumeRoots)
}
