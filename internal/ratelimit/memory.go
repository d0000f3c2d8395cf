package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-key token bucket: limit requests per window, refilled
// evenly. Keys idle for longer than the window and idleTTL are dropped on a
// later call, so no background goroutine is needed.
type Memory struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	idle := defaultIdleTTL
	if window > idle {
		idle = window
	}

	return &Memory{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		idleTTL:  idle,
		now:      time.Now,
	}
}

func (m *Memory) Allow(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.every, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now

	res := v.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}

	return Decision{Allowed: true, Remaining: int(v.limiter.TokensAt(now))}, nil
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.idleTTL {
		return
	}
	m.lastSweep = now

	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idleTTL {
			delete(m.visitors, key)
		}
	}
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}
