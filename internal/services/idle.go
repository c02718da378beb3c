package services

import (
	"sync/atomic"
	"time"
)

// DefaultIdleTTL is how long an untouched game or board is kept in memory.
const DefaultIdleTTL = 2 * time.Hour

// lastUse records when a session was last looked up.
type lastUse struct {
	at atomic.Int64
}

func (l *lastUse) touch(now time.Time) {
	l.at.Store(now.UnixNano())
}

func (l *lastUse) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, l.at.Load()))
}
