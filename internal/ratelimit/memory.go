package ratelimit

import (
	"sync"

	"github.com/smallbiznis/volunteerhub/internal/clock"
	"golang.org/x/time/rate"
)

const maxMemoryKeys = 10000

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	clock    clock.Clock
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func NewMemoryLimiter(clk clock.Clock, perSecond float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		clock:    clk,
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (m *MemoryLimiter) Allow(key string) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	limiter := m.limiterLocked(key)

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return &Result{Allowed: false, Limit: m.burst}
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &Result{Allowed: false, Limit: m.burst, RetryAfter: delay}
	}
	return &Result{
		Allowed:   true,
		Limit:     m.burst,
		Remaining: int(limiter.TokensAt(now)),
	}
}

func (m *MemoryLimiter) limiterLocked(key string) *rate.Limiter {
	if limiter, ok := m.limiters[key]; ok {
		return limiter
	}
	if len(m.limiters) >= maxMemoryKeys {
		m.pruneLocked()
	}
	limiter := rate.NewLimiter(m.limit, m.burst)
	m.limiters[key] = limiter
	return limiter
}

// pruneLocked drops buckets that have refilled completely; they carry no state.
func (m *MemoryLimiter) pruneLocked() {
	now := m.clock.Now()
	for key, limiter := range m.limiters {
		if limiter.TokensAt(now) >= float64(m.burst) {
			delete(m.limiters, key)
		}
	}
}

// Len reports how many keys are tracked.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}
