package serverrun

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/rzbill/sharedq/internal/config"
	"github.com/rzbill/sharedq/internal/runtime"
	httpserver "github.com/rzbill/sharedq/internal/server/http"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

type Options struct {
	DataDir  string
	HTTPAddr string
	Config   cfgpkg.Config
	// Logger overrides the logger built from Config.Log. Optional.
	Logger logpkg.Logger
}

// Run opens the node and serves HTTP until ctx is cancelled or a signal
// arrives.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = opts.Config.HTTPAddr
	}

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = loggerFromConfig(opts.Config.Log)
	}
	// Redirect stdlib logs to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{DataDir: opts.DataDir, Config: opts.Config, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	// Load the default queue now so a corrupt store fails startup, not the
	// first request.
	if _, err := rt.OpenQueue(sctx, ""); err != nil {
		return err
	}

	procLogger.Info("Starting sharedq node",
		logpkg.Str("node_id", rt.NodeID()),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("backend", opts.Config.Storage.Backend),
		logpkg.Int("peers", len(opts.Config.Peers.URLs)),
	)

	hsrv := httpserver.New(rt, procLogger)
	errCh := make(chan error, 1)
	go func() { errCh <- hsrv.ListenAndServe(sctx, opts.HTTPAddr) }()

	select {
	case <-sctx.Done():
		hsrv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			procLogger.Error("http server stopped", logpkg.Err(err))
			return err
		}
		return nil
	}
}

func loggerFromConfig(cfg logpkg.Config) logpkg.Logger {
	l, err := logpkg.ApplyConfig(&cfg)
	if err == nil {
		return l
	}
	lvl := logpkg.InfoLevel
	if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
		lvl = parsed
	}
	return logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
}
