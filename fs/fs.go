// Package fs resolves on-disk locations for redline state.
package fs

import (
	"os"
	"path/filepath"
)

// DefaultStateDir returns the default state directory for redline.
// Uses XDG_STATE_HOME if set, otherwise falls back to ~/.local/state/redline.
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "redline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "redline")
}

// DefaultJournalPath returns the default path of the decision journal.
func DefaultJournalPath() string {
	return filepath.Join(DefaultStateDir(), "decisions.jsonl")
}

// DefaultConfigPath returns the default config file location.
// Uses XDG_CONFIG_HOME if set, otherwise falls back to ~/.config/redline.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "redline", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "redline", "config.toml")
}
