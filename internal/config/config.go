package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// NodeID identifies this node to its peers. Empty means "use the id
	// persisted in the data directory, generating one on first start".
	NodeID               string   `json:"nodeId" yaml:"nodeId" toml:"node_id"`
	DefaultNamespaceName string   `json:"defaultNamespaceName" yaml:"defaultNamespaceName" toml:"default_namespace_name"`
	NamespaceNameRegex   string   `json:"namespaceNameRegex" yaml:"namespaceNameRegex" toml:"namespace_name_regex"`
	MaxNamespaces        int      `json:"maxNamespaces" yaml:"maxNamespaces" toml:"max_namespaces"`
	AllowedNamespaces    []string `json:"allowedNamespaces" yaml:"allowedNamespaces" toml:"allowed_namespaces"`
	// StartNumber is the first permanent number handed out in a fresh namespace.
	StartNumber int           `json:"startNumber" yaml:"startNumber" toml:"start_number"`
	Storage     StorageConfig `json:"storage" yaml:"storage" toml:"storage"`
	Peers       PeerConfig    `json:"peers" yaml:"peers" toml:"peers"`
	HTTPAddr    string        `json:"httpAddr" yaml:"httpAddr" toml:"http_addr"`
	Log         logpkg.Config `json:"log" yaml:"log" toml:"log"`
}

// StorageConfig selects and tunes the durable KV backend.
type StorageConfig struct {
	// Backend is pebble, sqlite or memory.
	Backend         string `json:"backend" yaml:"backend" toml:"backend"`
	Fsync           string `json:"fsync" yaml:"fsync" toml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs" toml:"fsync_interval_ms"`
}

// PeerConfig lists the nodes that receive this node's add/remove events.
type PeerConfig struct {
	URLs      []string `json:"urls" yaml:"urls" toml:"urls"`
	TimeoutMs int      `json:"timeoutMs" yaml:"timeoutMs" toml:"timeout_ms"`
}

// Timeout returns the per-peer send timeout.
func (p PeerConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

const (
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DefaultNamespaceName: "queue",
		// 15 characters matches the NVS namespace limit of the badge readers.
		NamespaceNameRegex: "[a-z0-9_-]{1,15}",
		StartNumber:        1,
		Storage: StorageConfig{
			Backend:         BackendPebble,
			Fsync:           "always",
			FsyncIntervalMs: 5,
		},
		Peers:    PeerConfig{TimeoutMs: 2000},
		HTTPAddr: ":8080",
		Log:      logpkg.Config{Level: "info"},
	}
}

// Load reads configuration from a JSON, YAML or TOML file (by extension).
// If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse json config: %w", err)
		}
	}
	return cfg, nil
}

// Validate reports configuration that would make the runtime misbehave.
func (c Config) Validate() error {
	var errs []error
	re, err := regexp.Compile("^(?:" + c.NamespaceNameRegex + ")$")
	if err != nil {
		errs = append(errs, fmt.Errorf("namespaceNameRegex: %w", err))
	} else if !re.MatchString(c.DefaultNamespaceName) {
		errs = append(errs, fmt.Errorf("defaultNamespaceName %q does not match %q", c.DefaultNamespaceName, c.NamespaceNameRegex))
	}
	if c.StartNumber < 1 || c.StartNumber > math.MaxInt32-1 {
		errs = append(errs, fmt.Errorf("startNumber must be in [1, %d], got %d", math.MaxInt32-1, c.StartNumber))
	}
	switch c.Storage.Backend {
	case BackendPebble, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q; use pebble|sqlite|memory", c.Storage.Backend))
	}
	if c.MaxNamespaces < 0 {
		errs = append(errs, errors.New("maxNamespaces must not be negative"))
	}
	for _, u := range c.Peers.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			errs = append(errs, fmt.Errorf("peer url %q must start with http:// or https://", u))
		}
	}
	return errors.Join(errs...)
}
