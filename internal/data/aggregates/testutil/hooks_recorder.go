package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/learnquest-backend/internal/data/aggregates"
)

// HooksRecorder is an aggregates.Hooks that keeps every signal for assertions.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.record(func() { h.Operations = append(h.Operations, OperationEvent{name, status, dur}) })
}

func (h *HooksRecorder) IncConflict(name string) {
	h.record(func() { h.Conflicts = append(h.Conflicts, name) })
}

func (h *HooksRecorder) IncRetry(name string) {
	h.record(func() { h.Retries = append(h.Retries, name) })
}

func (h *HooksRecorder) record(fn func()) {
	h.mu.Lock()
	fn()
	h.mu.Unlock()
}

// Statuses lists the statuses observed for op, oldest first.
func (h *HooksRecorder) Statuses(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []string{}
	for _, ev := range h.Operations {
		if ev.Name == op {
			out = append(out, ev.Status)
		}
	}
	return out
}
