package aggregates

import (
	"time"

	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

// SlowWriteThreshold marks a successful write as slow in the log hooks.
const SlowWriteThreshold = 500 * time.Millisecond

// Hooks receives one ObserveOperation per aggregate write, plus a conflict or retry signal
// when the write failed that way.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type logHooks struct {
	log *logger.Logger
}

// NewLogHooks writes aggregate signals to log. A nil log disables them.
func NewLogHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return logHooks{log: log.With("component", "progression_aggregate")}
}

func (h logHooks) ObserveOperation(name, status string, dur time.Duration) {
	kv := []any{"op", name, "status", status, "duration_ms", dur.Milliseconds()}
	switch {
	case status != statusSuccess:
		h.log.Warn("aggregate write failed", kv...)
	case dur >= SlowWriteThreshold:
		h.log.Warn("slow aggregate write", kv...)
	default:
		h.log.Debug("aggregate write", kv...)
	}
}

func (h logHooks) IncConflict(name string) { h.log.Warn("aggregate write conflict", "op", name) }

func (h logHooks) IncRetry(name string) { h.log.Warn("aggregate write retryable", "op", name) }
