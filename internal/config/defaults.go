package config

import (
	"os"
	"path/filepath"
	"strings"

	"iso2god-desktop/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		EnginePath: "iso2god",
		OutputDir:  filepath.Join(homeDir, "Documents", "GOD"),
		LogLevel:   "info",
		Layout:     domain.LayoutTitleID,
		Padding:    domain.PaddingUntouched,
	}
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "iso2god-desktop", "settings.toml")
}

// normalize fills blank or unknown fields from defaults.
func normalize(cfg domain.Settings) domain.Settings {
	def := DefaultSettings()
	if strings.TrimSpace(cfg.EnginePath) == "" {
		cfg.EnginePath = def.EnginePath
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = def.OutputDir
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = def.LogLevel
	}
	if !cfg.Layout.Valid() {
		cfg.Layout = def.Layout
	}
	if !cfg.Padding.Valid() {
		cfg.Padding = def.Padding
	}
	return cfg
}
