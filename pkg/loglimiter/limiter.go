// Package loglimiter throttles log lines that repeat under the same key.
package loglimiter

import (
	"sync"
	"time"
)

// maxKeys bounds the tracked keys, quiet keys are purged past it
const maxKeys = 1024

type entry struct {
	last       time.Time
	suppressed int
}

// Limiter allows one line per key per window and counts the lines it
// suppressed in between.
type Limiter struct {
	mux    sync.Mutex
	window time.Duration
	logs   map[string]*entry
	now    func() time.Time
}

func NewLimiter(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		logs:   make(map[string]*entry),
		now:    time.Now,
	}
}

// Allow reports whether a line for key may be logged now. When it may, the
// number of lines suppressed since the previous allowed one is returned.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := l.now()
	e, ok := l.logs[key]
	if !ok {
		if len(l.logs) >= maxKeys {
			l.purge(now)
		}
		l.logs[key] = &entry{last: now}
		return true, 0
	}
	if now.Sub(e.last) < l.window {
		e.suppressed++
		return false, 0
	}
	suppressed := e.suppressed
	e.last, e.suppressed = now, 0
	return true, suppressed
}

// purge drops keys that have been quiet for a full window
func (l *Limiter) purge(now time.Time) {
	for key, e := range l.logs {
		if now.Sub(e.last) >= l.window && e.suppressed == 0 {
			delete(l.logs, key)
		}
	}
}
