package poller

import (
	"sync"
	"time"
)

const activityLogSize = 6

// activityLog keeps the last few human readable events of the widget.
type activityLog struct {
	mu    sync.Mutex
	lines []ActivityLine
	size  int
}

func newActivityLog(size int) *activityLog {
	return &activityLog{size: size}
}

func (a *activityLog) add(at time.Time, text string) {
	if text == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.lines = append(a.lines, ActivityLine{Time: at, Text: text})
	if over := len(a.lines) - a.size; over > 0 {
		a.lines = append(a.lines[:0:0], a.lines[over:]...)
	}
}

func (a *activityLog) snapshot() []ActivityLine {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ActivityLine, len(a.lines))
	copy(out, a.lines)

	return out
}

func (a *activityLog) reset() {
	a.mu.Lock()
	a.lines = nil
	a.mu.Unlock()
}
