package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/sharedq/internal/cmd/client"
	serverrun "github.com/rzbill/sharedq/internal/cmd/server"
	cfgpkg "github.com/rzbill/sharedq/internal/config"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

func main() {
	// CLI-side logger; the server builds its own from config.
	level, err := logpkg.ParseLevel(os.Getenv("SHAREDQ_LOG_LEVEL"))
	if err != nil {
		level = logpkg.WarnLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(level),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	var apiAddr string

	rootCmd := clientcmd.NewRoot(func() string { return apiURL(apiAddr) })
	rootCmd.Long = "sharedq keeps a replicated queue of identity records with stable permanent numbers."
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "Node HTTP API base URL (default $SHAREDQ_API or http://127.0.0.1:8080)")

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start a sharedq node (HTTP API + peer endpoint)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(cfgPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			applyServerFlags(cmd, &cfg)
			if cfg.Log.Format == "" {
				cfg.Log.Format = defaultLogFormat()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  dataDir,
				HTTPAddr: cfg.HTTPAddr,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", os.Getenv("SHAREDQ_CONFIG"), "Config file (.json, .yaml, .toml)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("backend", "", "Storage backend: pebble|sqlite|memory")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode for pebble: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 0, "When --fsync=interval, group-commit window in ms")
	serverStartCmd.Flags().StringSlice("peer", nil, "Peer base URL (repeatable)")
	serverStartCmd.Flags().String("node-id", "", "Node id sent to peers (default: persisted uuid)")
	serverStartCmd.Flags().Int("start-number", 0, "First permanent number in new namespaces")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json (default text on a terminal, json otherwise)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyServerFlags overlays explicitly set flags onto cfg. Flags win over the
// environment, which wins over the config file.
func applyServerFlags(cmd *cobra.Command, cfg *cfgpkg.Config) {
	f := cmd.Flags()
	if f.Changed("http") {
		cfg.HTTPAddr, _ = f.GetString("http")
	}
	if f.Changed("backend") {
		cfg.Storage.Backend, _ = f.GetString("backend")
	}
	if f.Changed("fsync") {
		cfg.Storage.Fsync, _ = f.GetString("fsync")
	}
	if f.Changed("fsync-interval-ms") {
		cfg.Storage.FsyncIntervalMs, _ = f.GetInt("fsync-interval-ms")
	}
	if f.Changed("peer") {
		cfg.Peers.URLs, _ = f.GetStringSlice("peer")
	}
	if f.Changed("node-id") {
		cfg.NodeID, _ = f.GetString("node-id")
	}
	if f.Changed("start-number") {
		cfg.StartNumber, _ = f.GetInt("start-number")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
}

// defaultLogFormat is text for a human at a terminal and JSON for log
// collectors.
func defaultLogFormat() string {
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return "text"
	}
	return "json"
}

func apiURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("SHAREDQ_API"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
