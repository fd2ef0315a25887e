// Package config loads the chime configuration from TOML files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	CatalogURL   string   `koanf:"catalog_url"`   // Invidious instance base URL
	DownloadDirs []string `koanf:"download_dirs"` // paths scanned for local audio files

	// Search resolution settings
	Search SearchConfig `koanf:"search"`

	// Playback settings
	Player PlayerConfig `koanf:"player"`
}

// SearchConfig holds the fuzzy resolution settings.
type SearchConfig struct {
	Threshold        float64 `koanf:"threshold"`          // Minimum match score (0.0-1.0, default: 0.56)
	HistoryLimit     int     `koanf:"history_limit"`      // Recently-played entries queued ahead (default: 30)
	RemoteTimeoutSec int     `koanf:"remote_timeout_sec"` // Per-query catalog timeout in seconds (default: 10)
	Workers          int     `koanf:"workers"`            // Concurrent catalog lookups (1-16, default: 4)
}

// PlayerConfig holds playback configuration.
type PlayerConfig struct {
	Command string `koanf:"command"` // player binary (default: "mpv")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize catalog URL (remove trailing slash)
	cfg.CatalogURL = strings.TrimSuffix(cfg.CatalogURL, "/")

	// Expand ~ in download_dirs
	for i, dir := range cfg.DownloadDirs {
		cfg.DownloadDirs[i] = expandPath(dir)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/chime/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "chime", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetSearchConfig returns the search configuration with defaults applied.
func (c *Config) GetSearchConfig() SearchConfig {
	cfg := c.Search

	// Apply defaults
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = 0.56
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 30
	}
	if cfg.RemoteTimeoutSec <= 0 {
		cfg.RemoteTimeoutSec = 10
	}
	if cfg.Workers <= 0 || cfg.Workers > 16 {
		cfg.Workers = 4
	}

	return cfg
}

// PlayerCommand returns the configured player binary, defaulting to mpv.
func (c *Config) PlayerCommand() string {
	if c.Player.Command != "" {
		return c.Player.Command
	}
	return "mpv"
}
