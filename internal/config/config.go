//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package config loads and validates client configuration, adapted from the
// teacher's internal/config (JSON file under a per-app config dir, with an
// environment variable fallback for the API key) generalized to the full
// option set spec.md §6 describes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudmanic/realtime-go/internal/errs"
	"github.com/cloudmanic/realtime-go/internal/provider"
)

const (
	configDirName = ".config/realtime-go"
	configFile    = "config.json"
	envAPIKey     = "INTRINIO_API_KEY"

	// minOptionsThreads and minEquitiesThreads are the thread-count floors
	// enforced at construction time (spec.md §4.5).
	minOptionsThreads  = 4
	minEquitiesThreads = 2

	// defaultMaxQueueSizeEquities and defaultMaxQueueSizeOptions are the
	// default bounded-queue sizes per asset class (spec.md §3).
	defaultMaxQueueSizeEquities = 10_000
	defaultMaxQueueSizeOptions  = 500_000
)

// configDirOverride lets tests redirect Load/Save to a temp directory
// without touching the real user config.
var configDirOverride string

// SetConfigDir overrides the config directory; pass "" to restore the
// default (~/.config/realtime-go). Intended for tests.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// Config holds every option spec.md §6 documents: required fields, the
// initial channel set, and the replay sub-config.
type Config struct {
	APIKey          string            `json:"api_key"`
	Provider        provider.Provider `json:"provider"`
	Delayed         bool              `json:"delayed"`
	NumThreads      int               `json:"num_threads"`
	Symbols         []string          `json:"symbols"`
	LogLevel        string            `json:"log_level"`
	ManualIPAddress string            `json:"manual_ip_address"`
	MaxQueueSize    int               `json:"max_queue_size"`
	BypassParsing   bool              `json:"bypass_parsing"`

	ReplayDate         string `json:"replay_date"`
	WithSimulatedDelay bool   `json:"with_simulated_delay"`
	DeleteFileWhenDone bool   `json:"delete_file_when_done"`
	WriteToCSV         bool   `json:"write_to_csv"`
	CSVFilePath        string `json:"csv_file_path"`
	Debug              bool   `json:"debug"`
}

// DefaultConfig returns a Config with the documented defaults: no API key
// or provider set (both required), the equities thread floor, and the
// equities queue-size default.
func DefaultConfig() *Config {
	return &Config{
		NumThreads:   minEquitiesThreads,
		MaxQueueSize: defaultMaxQueueSizeEquities,
		LogLevel:     "info",
	}
}

func configDirPath() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

func configPath() (string, error) {
	dir, err := configDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration from disk. If the config file does not
// exist, it returns a default configuration. Returns an error if the file
// exists but cannot be read or parsed.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to disk, creating the config directory if
// needed. The file is written with 0600 permissions to protect the API key.
func Save(cfg *Config) error {
	dir, err := configDirPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetAPIKey returns the API key from the INTRINIO_API_KEY environment
// variable first, falling back to the config file.
func GetAPIKey() (string, error) {
	if key := os.Getenv(envAPIKey); key != "" {
		return key, nil
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.APIKey == "" {
		return "", fmt.Errorf("API key not configured. Run 'realtime config init' or set %s", envAPIKey)
	}
	return cfg.APIKey, nil
}

// isOptionsProvider reports whether p is one of the options-asset
// providers (OPRA, MANUAL), which carry the 4-thread floor.
func isOptionsProvider(p provider.Provider) bool {
	return p == provider.OPRA || p == provider.Manual
}

// Validate enforces spec.md §6/§7's construction-time checks: required
// fields, a known provider, and the per-asset thread-count floor. Failures
// return a ConfigError, never surfaced at runtime.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errs.Config(fmt.Errorf("apiKey is required"))
	}
	if c.Provider == "" {
		return errs.Config(fmt.Errorf("provider is required"))
	}
	if c.Provider == provider.Manual && c.ManualIPAddress == "" {
		return errs.Config(fmt.Errorf("manualIpAddress is required for provider MANUAL"))
	}
	if _, err := provider.Lookup(c.Provider, c.Delayed, c.ManualIPAddress); err != nil {
		return errs.Config(err)
	}

	floor := minEquitiesThreads
	if isOptionsProvider(c.Provider) {
		floor = minOptionsThreads
	}
	if c.NumThreads < floor {
		return errs.Config(fmt.Errorf("numThreads must be at least %d for this provider, got %d", floor, c.NumThreads))
	}

	if c.MaxQueueSize <= 0 {
		if isOptionsProvider(c.Provider) {
			c.MaxQueueSize = defaultMaxQueueSizeOptions
		} else {
			c.MaxQueueSize = defaultMaxQueueSizeEquities
		}
	}

	if c.WriteToCSV && c.CSVFilePath == "" {
		return errs.Config(fmt.Errorf("csvFilePath is required when writeToCSV is set"))
	}

	return nil
}
