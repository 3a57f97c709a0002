// Package config loads FormCoach settings from a TOML file. Every
// field is optional; missing files and missing keys fall back to
// defaults, so a fresh install runs with no configuration at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the runtime settings for the FormCoach daemon.
type Config struct {
	// ListenAddr is the HTTP listen address for the dashboard and API.
	ListenAddr string `toml:"listen_addr,omitempty"`

	// CameraID selects the capture device.
	CameraID int `toml:"camera_id,omitempty"`

	// DBPath is the SQLite database location.
	DBPath string `toml:"db_path,omitempty"`

	// WebDir serves the static dashboard when set.
	WebDir string `toml:"web_dir,omitempty"`

	// PluginDir is scanned for feedback plugins.
	PluginDir string `toml:"plugin_dir,omitempty"`

	// Exercise is the exercise coached at startup.
	Exercise string `toml:"exercise,omitempty"`

	// MinConfidence is the landmark visibility cutoff.
	MinConfidence float64 `toml:"min_confidence,omitempty"`
}

// Default returns the configuration a fresh install runs with.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		CameraID:      0,
		DBPath:        filepath.Join(DataDir(), "formcoach.db"),
		PluginDir:     filepath.Join(DataDir(), "plugins"),
		Exercise:      "squat",
		MinConfidence: 0.5,
	}
}

// DataDir returns ~/.formcoach, the default home for the database,
// plugins, and config file.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".formcoach"
	}
	return filepath.Join(home, ".formcoach")
}

// DefaultConfigPath returns ~/.formcoach/config.toml.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads the config file at path, layering it over the defaults.
// A missing file is not an error: the defaults come back unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.WebDir = expandHome(cfg.WebDir)
	cfg.PluginDir = expandHome(cfg.PluginDir)

	return cfg, nil
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
