// Package serverrun exposes the Run entrypoint the CLI uses to start a
// sharedq node: it opens the runtime, serves HTTP, and shuts down cleanly on
// cancellation or SIGINT/SIGTERM.
//
// Example:
//
//	opts := serverrun.Options{DataDir: "./data", HTTPAddr: ":8080", Config: config.Default()}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, opts)
package serverrun
