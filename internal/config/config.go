// Package config loads the synchronizer's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Catalog  string   `koanf:"catalog"`  // path to the catalog TOML file
	Listen   string   `koanf:"listen"`   // head unit websocket listen address
	Channels []string `koanf:"channels"` // "session", "browse"; empty enables both
	Mpris    bool     `koanf:"mpris"`    // expose the session over MPRIS

	History HistoryConfig `koanf:"history"`
	Routing RoutingConfig `koanf:"routing"`
	Browse  BrowseConfig  `koanf:"browse"`
	Log     LogConfig     `koanf:"log"`
}

// HistoryConfig bounds the recently-played list.
type HistoryConfig struct {
	Capacity int `koanf:"capacity"` // default 10
}

// RoutingConfig tunes the routing restart.
type RoutingConfig struct {
	GraceInterval string `koanf:"grace_interval"` // e.g. "2s"
}

// BrowseConfig selects the empty-history presentation.
type BrowseConfig struct {
	EmptyHistory string `koanf:"empty_history"` // "omit" (default) or "message"
	EmptyMessage string `koanf:"empty_message"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// GraceInterval parses the configured routing grace interval.
// Returns 0 (meaning "use default") when unset.
func (c *Config) GraceInterval() (time.Duration, error) {
	if c.Routing.GraceInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Routing.GraceInterval)
	if err != nil {
		return 0, fmt.Errorf("routing.grace_interval: %w", err)
	}
	return d, nil
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Listen: ":8735",
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Catalog = expandPath(cfg.Catalog)
	cfg.Log.File = expandPath(cfg.Log.File)

	for _, ch := range cfg.Channels {
		if ch != "session" && ch != "browse" {
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
	}
	switch cfg.Browse.EmptyHistory {
	case "", "omit", "message":
	default:
		return nil, fmt.Errorf("unknown browse.empty_history %q", cfg.Browse.EmptyHistory)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/drivesync/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "drivesync", "config.toml"))
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
