package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirOverrides(t *testing.T) {
	t.Setenv("SHAREDQ_DATA_DIR", "/srv/sharedq")
	if got := DefaultDataDir(); got != "/srv/sharedq" {
		t.Fatalf("SHAREDQ_DATA_DIR ignored: %s", got)
	}
	t.Setenv("SHAREDQ_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/sharedq" {
		t.Fatalf("XDG_DATA_HOME ignored: %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv("SHAREDQ_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", "")
	t.Setenv("home", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("expected fallback to ./data, got %s", got)
	}
}

func TestDefaultDataDirShape(t *testing.T) {
	t.Setenv("SHAREDQ_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "")
	got := DefaultDataDir()
	if !filepath.IsAbs(got) && !strings.HasPrefix(got, "./") {
		t.Fatalf("want absolute or ./ path, got %s", got)
	}
	if !strings.HasSuffix(got, "sharedq") && got != "./data" {
		t.Fatalf("want sharedq suffix, got %s", got)
	}
}

func TestStorePath(t *testing.T) {
	if got := StorePath("/d", BackendSQLite); got != filepath.Join("/d", "sharedq.db") {
		t.Fatalf("sqlite path %s", got)
	}
	if got := StorePath("/d", BackendPebble); got != filepath.Join("/d", "store") {
		t.Fatalf("pebble path %s", got)
	}
	if got := LockPath("/d"); got != filepath.Join("/d", "sharedq.lock") {
		t.Fatalf("lock path %s", got)
	}
}
