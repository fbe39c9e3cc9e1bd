// Package config resolves serena's on-disk locations: the archive layout
// under a root, the per-user config and data directories, and the Google
// Sheets export settings.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "serena"

// ExpandPath expands a leading ~ and any $VAR references in path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~" || strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is where config.yaml and the Sheets token live:
// $XDG_CONFIG_HOME/serena, falling back to ~/.config/serena.
func ConfigDir() string {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the result cache and the ledger database:
// $XDG_DATA_HOME/serena, falling back to ~/.local/share/serena.
func DataDir() string {
	return userDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func userDir(env, homeRel string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName)
	}
	return filepath.Join(ExpandPath("~"), homeRel, appName)
}
