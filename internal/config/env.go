package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays SHAREDQ_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SHAREDQ_NODE_ID"); v != "" {
		cfg.NodeID = v
	}
	if v := os.Getenv("SHAREDQ_DEFAULT_NAMESPACE_NAME"); v != "" {
		cfg.DefaultNamespaceName = v
	}
	if v := os.Getenv("SHAREDQ_NAMESPACE_NAME_REGEX"); v != "" {
		cfg.NamespaceNameRegex = v
	}
	if v := os.Getenv("SHAREDQ_MAX_NAMESPACES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxNamespaces = n
		}
	}
	if v := os.Getenv("SHAREDQ_ALLOWED_NAMESPACES"); v != "" {
		cfg.AllowedNamespaces = splitList(v)
	}
	if v := os.Getenv("SHAREDQ_START_NUMBER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StartNumber = n
		}
	}
	if v := os.Getenv("SHAREDQ_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("SHAREDQ_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("SHAREDQ_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("SHAREDQ_PEERS"); v != "" {
		cfg.Peers.URLs = splitList(v)
	}
	if v := os.Getenv("SHAREDQ_PEER_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Peers.TimeoutMs = n
		}
	}
	if v := os.Getenv("SHAREDQ_HTTP"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SHAREDQ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SHAREDQ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
