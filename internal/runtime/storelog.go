package runtime

import (
	"time"

	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// pebbleLogger routes Pebble's log output into the node logger. Pebble's
// informational chatter goes to debug.
type pebbleLogger struct{ l logpkg.Logger }

func (p pebbleLogger) Infof(format string, args ...interface{})  { p.l.Debugf(format, args...) }
func (p pebbleLogger) Errorf(format string, args ...interface{}) { p.l.Errorf(format, args...) }
func (p pebbleLogger) Fatalf(format string, args ...interface{}) { p.l.Fatalf(format, args...) }

// slowCommitLogger warns about commits slower than threshold.
type slowCommitLogger struct {
	logger    logpkg.Logger
	threshold time.Duration
}

func (s slowCommitLogger) ObserveRead(time.Duration, int) {}

func (s slowCommitLogger) ObserveBatchCommit(elapsed time.Duration, ops, bytes int) {
	if elapsed < s.threshold {
		return
	}
	s.logger.Warn("slow commit",
		logpkg.Duration("elapsed", elapsed), logpkg.Int("ops", ops), logpkg.Int("bytes", bytes))
}
