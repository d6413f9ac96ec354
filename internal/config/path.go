package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDir picks where queues live when --data-dir is not given:
// $SHAREDQ_DATA_DIR, then $XDG_DATA_HOME/sharedq, then the platform's
// per-user data location, falling back to ./data without a home directory.
func DefaultDataDir() string {
	if v := os.Getenv("SHAREDQ_DATA_DIR"); v != "" {
		return v
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sharedq")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "sharedq")
	case "windows":
		return filepath.Join(homeDir, "AppData", "Local", "sharedq")
	default:
		return filepath.Join(homeDir, ".local", "share", "sharedq")
	}
}

// LockPath is the single-owner lock file inside a data directory.
func LockPath(dataDir string) string { return filepath.Join(dataDir, "sharedq.lock") }

// StorePath is where the KV backend keeps its files inside a data directory.
func StorePath(dataDir, backend string) string {
	if backend == BackendSQLite {
		return filepath.Join(dataDir, "sharedq.db")
	}
	return filepath.Join(dataDir, "store")
}
