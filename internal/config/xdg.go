// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDBPath returns the default path for the frequency database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "shortwave", "frequency.db")
}

// DefaultSeenLogPath returns the default path for the seen-message log.
func DefaultSeenLogPath() string {
	return filepath.Join(XDGDataHome(), "shortwave", "seen.log")
}

// DefaultVocabPath returns the default path for the dictionary word list.
func DefaultVocabPath() string {
	return filepath.Join(XDGDataHome(), "shortwave", "words_alpha.txt")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "shortwave", "config.toml")
}
