// Package config provides loading and environment overlay for sharedq
// runtime configuration. Default() is the baseline; Load reads JSON, YAML or
// TOML by file extension; FromEnv overlays SHAREDQ_* variables.
//
// Example:
//
//	cfg, err := config.Load("/etc/sharedq.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
//	defer rt.Close()
package config
