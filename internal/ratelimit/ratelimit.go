// Package ratelimit throttles the unauthenticated auth endpoints per client.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Noop allows everything. It stands in when limiting is switched off.
type Noop struct{}

func (Noop) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}
