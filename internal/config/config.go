// Package config manages shelf configuration and the .shelf data
// directory that holds the config file and the operation-log database.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	ShelfDir     = ".shelf"
	ConfigFile   = "config"
	DatabaseFile = "shelf.db"

	// EnvDir overrides the data directory location.
	EnvDir = "SHELF_DIR"
)

// Config represents the shelf configuration
type Config struct {
	Listen      string   `toml:"listen"`       // server listen address
	VolumeRoots []string `toml:"volume_roots"` // mount points treated as removable volumes
	path        string   // path to the .shelf directory
}

// Default returns the configuration used when no config file exists yet.
func Default() *Config {
	return &Config{
		Listen:      "127.0.0.1:8750",
		VolumeRoots: []string{"/Volumes", "/mnt", "/media", "/run/media"},
	}
}

// Dir returns the data directory path: $SHELF_DIR if set, otherwise
// .shelf under the user's home directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ShelfDir), nil
}

// Init creates the data directory and writes a default config file.
// It is a no-op if the config file already exists.
func Init() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	configPath := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return Load()
	}

	cfg := Default()
	cfg.path = dir
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads the configuration from the data directory
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("shelf is not initialized (run 'shelf init')")
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = dir
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0644)
}

// DatabasePath returns the path to the operation-log database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.path, DatabaseFile)
}

// Path returns the data directory this config was loaded from.
func (c *Config) Path() string {
	return c.path
}
