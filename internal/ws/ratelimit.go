package ws

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterRegistry keys message-rate limiters by client address, so a
// reconnecting client keeps its budget. Entries for addresses that go
// quiet are evicted by the housekeeper sweep.
type LimiterRegistry struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rate    rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLimiterRegistry(perSecond float64, burst int) *LimiterRegistry {
	return &LimiterRegistry{
		entries: make(map[string]*limiterEntry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
	}
}

// Get returns the limiter for a key, creating it on first sight.
func (lr *LimiterRegistry) Get(key string) *rate.Limiter {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	entry, ok := lr.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(lr.rate, lr.burst)}
		lr.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Sweep drops entries idle longer than the cutoff and reports how many
// went away.
func (lr *LimiterRegistry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	lr.mu.Lock()
	defer lr.mu.Unlock()
	evicted := 0
	for key, entry := range lr.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(lr.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len reports how many limiters are live.
func (lr *LimiterRegistry) Len() int {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return len(lr.entries)
}
