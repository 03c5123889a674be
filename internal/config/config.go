// Package config holds the per-repository configuration, stored as
// config.json inside the repository directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const FileName = "config.json"

const (
	StorageFS     = "fs"
	StorageBadger = "badger"
)

type Config struct {
	// Storage selects the backend: "fs" (default) or "badger".
	Storage string `json:"storage"`

	// CacheSize is the number of objects held in the read cache.
	CacheSize int `json:"cache_size"`

	// CompressMin is the smallest value size the badger backend
	// compresses. Zero disables compression.
	CompressMin int `json:"compress_min"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

func Default() *Config {
	return &Config{
		Storage:     StorageFS,
		CacheSize:   512,
		CompressMin: 4096,
		LogLevel:    "error",
	}
}

// Load reads the config from repoDir. An absent file yields the
// defaults; an unreadable or invalid one is an error.
func Load(repoDir string) (*Config, error) {
	file, err := os.Open(filepath.Join(repoDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Storage != StorageFS && cfg.Storage != StorageBadger {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
	return cfg, nil
}

// Save writes the config to repoDir.
func Save(repoDir string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(repoDir, FileName), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
