package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_AllowsBurstThenRejects(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return clock }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d, err := m.Allow(ctx, "ip:1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
	}

	d, err := m.Allow(ctx, "ip:1")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Greater(t, d.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, d.RetryAfter, 20*time.Second)

	// other keys have their own bucket
	d, err = m.Allow(ctx, "ip:2")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// one token refills every 20s
	clock = clock.Add(20 * time.Second)
	d, err = m.Allow(ctx, "ip:1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestMemory_EvictsIdleKeys(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(5, time.Minute)
	m.now = func() time.Time { return clock }

	ctx := context.Background()
	_, _ = m.Allow(ctx, "a")
	_, _ = m.Allow(ctx, "b")
	require.Equal(t, 2, m.size())

	clock = clock.Add(defaultIdleTTL + time.Second)
	_, _ = m.Allow(ctx, "c")
	require.Equal(t, 1, m.size())
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory(1, time.Minute).Allow(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNoop(t *testing.T) {
	d, err := Noop{}.Allow(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}
