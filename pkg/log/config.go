package log

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config declares a logger.
type Config struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
	// Outputs lists "console", "stdout", "null" or a file path.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty" toml:"outputs,omitempty"`
	// Redact lists field keys whose values are replaced with [REDACTED].
	Redact []string `json:"redact,omitempty" yaml:"redact,omitempty" toml:"redact,omitempty"`
}

// ParseLevel maps a level name to a Level. Empty input is an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level := InfoLevel
	if cfg.Level != "" {
		l, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	for _, o := range cfg.Outputs {
		switch o {
		case "", "console", "stderr":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case "stdout":
			opts = append(opts, WithOutput(&ConsoleOutput{UseStdout: true}))
		case "null":
			opts = append(opts, WithOutput(NullOutput{}))
		default:
			f, err := os.OpenFile(o, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log output %s: %w", o, err)
			}
			opts = append(opts, WithOutput(NewWriterOutput(f)))
		}
	}

	l := NewLogger(opts...).(*BaseLogger)
	if len(cfg.Redact) > 0 {
		h := l.slogLogger.Handler().(*bridgeHandler)
		l.slogLogger = slog.New(h.withRedactions(cfg.Redact))
	}
	return l, nil
}
