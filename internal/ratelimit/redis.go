package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared by every API instance. Each window
// gets its own key, which expires with the window.
type Redis struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(rdb redis.Cmdable, limit int, window time.Duration) *Redis {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Redis{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "authbase:ratelimit:",
		now:    time.Now,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	windowStart := now.Truncate(r.window)
	redisKey := r.prefix + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	if count > r.limit {
		return Decision{Allowed: false, RetryAfter: windowStart.Add(r.window).Sub(now)}, nil
	}

	return Decision{Allowed: true, Remaining: r.limit - count}, nil
}
