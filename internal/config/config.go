// Package config provides configuration loading and structs for the billsync server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Indexing IndexingConfig `yaml:"indexing"`
	Search   SearchConfig   `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the bill database and the search index.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	IndexPath       string `yaml:"index_path"`
	RecordCacheSize int    `yaml:"record_cache_size"`
}

// RebuildLockPath returns the lock file guarding rebuilds of the index. It sits next to the
// index directory because clearing the index removes the directory.
func (s *StorageConfig) RebuildLockPath() string {
	if s.IndexPath == "" {
		return ""
	}
	return filepath.Clean(s.IndexPath) + ".lock"
}

// IndexingConfig holds the indexing switch and rebuild tuning.
type IndexingConfig struct {
	Enabled          *bool `yaml:"enabled"`
	RebuildBatchSize int   `yaml:"rebuild_batch_size"`
	FetchWorkers     int   `yaml:"fetch_workers"`
	RebuildOnStart   bool  `yaml:"rebuild_on_start"`
}

// EnabledOrDefault returns whether indexing is enabled; defaults to true when unset.
func (i *IndexingConfig) EnabledOrDefault() bool {
	if i.Enabled != nil {
		return *i.Enabled
	}
	return true
}

// SearchConfig holds search paging settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used to persist the indexing switch.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. ":memory:" is kept as is.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
