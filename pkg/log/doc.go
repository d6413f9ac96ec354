// Package log provides sharedq's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by log/slog via
// a bridge handler that feeds a Formatter and one or more Outputs.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("sharedqueue"), log.Namespace("lobby"))
//	l.Info("entry assigned", log.Str("uid", "04A1"), log.Int("number", 3))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (text or JSON, console,
// stdout, null or file outputs, key redaction).
//
// # Interop
//
// ToStdLogger and RedirectStdLog bridge the standard library logger. Logger
// also satisfies pebble.Logger, so it can be handed straight to the store.
package log
