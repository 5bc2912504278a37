package dmxtransport

import (
	"sync"
	"time"
)

// logThrottle suppresses repeated log lines for the same key (a universe
// id) within a sliding window, so a universe stuck emitting errors every
// 20ms tick doesn't flood the log. Adapted from the sliding-window failed
// login tracker in _examples/arung-agamani-denpa-radio/internal/auth/auth.go,
// generalized from "count of failures" to "time since last emission".
type logThrottle struct {
	mu       sync.Mutex
	lastSeen map[uint32]time.Time
	window   time.Duration
}

func newLogThrottle(window time.Duration) *logThrottle {
	if window <= 0 {
		window = time.Second
	}
	return &logThrottle{lastSeen: make(map[uint32]time.Time), window: window}
}

// allow reports whether a log line for key may be emitted now. Only an
// allowed emission is recorded; a suppressed attempt does not extend the
// window.
func (t *logThrottle) allow(key uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	last, seen := t.lastSeen[key]
	if seen && now.Sub(last) < t.window {
		return false
	}
	t.lastSeen[key] = now
	return true
}
