// Package paths provides XDG-compliant path resolution for forge.
//
// Resolution order:
// 1. FORGE_HOME (portable root) → $FORGE_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/forge
// 3. Platform defaults → ~/.config/forge, ~/.local/state/forge
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if forgeHome := os.Getenv("FORGE_HOME"); forgeHome != "" {
		return filepath.Join(forgeHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if forgeHome := os.Getenv("FORGE_HOME"); forgeHome != "" {
		return filepath.Join(forgeHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the forge configuration directory.
// Used for the global forge.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "forge")
}

// StateDir returns the forge state directory.
// Used for runtime state: pidfile, daemon logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "forge")
}

// PidFilePath returns the path of the daemon pidfile.
func PidFilePath() string {
	return filepath.Join(StateDir(), "forged.pid")
}

// DaemonLogDir returns the directory holding the daemon's log files.
func DaemonLogDir() string {
	return filepath.Join(StateDir(), "logs")
}
