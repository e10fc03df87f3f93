package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles actions per key.
type Limiter interface {
	Allow(key string) bool
}

const maxTrackedKeys = 4096

// InMemoryLimiter keeps one token bucket per key. Keys are URLs, an unbounded
// space, so idle buckets are swept once the table grows past its cap.
type InMemoryLimiter struct {
	mu       sync.Mutex
	keys     map[string]*entry
	r        rate.Limit
	b        int
	idleSpan time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInMemoryLimiter allows `requests` actions per `per` for each key, with
// the given burst. NewInMemoryLimiter(1, 10*time.Second, 1) throttles a key to
// one action every ten seconds.
func NewInMemoryLimiter(requests int, per time.Duration, burst int) *InMemoryLimiter {
	return &InMemoryLimiter{
		keys:     make(map[string]*entry),
		r:        rate.Every(per / time.Duration(requests)),
		b:        burst,
		idleSpan: 10 * per,
	}
}

// Allow reports whether an action is currently permitted for the key.
func (l *InMemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.keys[key]
	if !ok {
		if len(l.keys) >= maxTrackedKeys {
			l.sweepLocked()
		}
		e = &entry{limiter: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = e
	}
	e.lastSeen = time.Now()

	return e.limiter.Allow()
}

// sweepLocked drops buckets idle long enough that they would be full anyway.
func (l *InMemoryLimiter) sweepLocked() {
	cutoff := time.Now().Add(-l.idleSpan)
	for key, e := range l.keys {
		if e.lastSeen.Before(cutoff) {
			delete(l.keys, key)
		}
	}
}
