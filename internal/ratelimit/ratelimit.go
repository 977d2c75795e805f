// Package ratelimit is a Redis sliding-window flood guard for inbound chat
// messages.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flood:chat:"

// Limiter bounds how many messages one ledger key can push through the bot
// per window, using a Redis sorted set of event timestamps. The window and
// the cap are fixed at construction.
type Limiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
	ttl    time.Duration
}

// New builds a limiter allowing maxPerMinute events per key per minute.
func New(rdb redis.Cmdable, maxPerMinute int) *Limiter {
	return &Limiter{
		rdb:    rdb,
		max:    maxPerMinute,
		window: time.Minute,
		// Keys outlive the window slightly so an idle chat's set expires
		// on its own instead of lingering forever.
		ttl: 90 * time.Second,
	}
}

// Allow reports whether key is still under the cap, recording the event
// when it is. An error means Redis could not answer; the caller decides
// whether that fails open.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	rkey := keyPrefix + key
	now := time.Now()

	trim := l.rdb.Pipeline()
	trim.ZRemRangeByScore(ctx, rkey, "-inf", msScore(now.Add(-l.window)))
	countCmd := trim.ZCard(ctx, rkey)
	if _, err := trim.Exec(ctx); err != nil {
		return false, fmt.Errorf("flood guard trim: %w", err)
	}

	count := countCmd.Val()
	if count >= int64(l.max) {
		return false, nil
	}

	record := l.rdb.Pipeline()
	// The member carries the in-window ordinal so two events in the same
	// millisecond stay distinct.
	record.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d:%d", now.UnixNano(), count),
	})
	record.Expire(ctx, rkey, l.ttl)
	if _, err := record.Exec(ctx); err != nil {
		return false, fmt.Errorf("flood guard record: %w", err)
	}

	return true, nil
}

// Usage returns how many events key has inside the current window.
func (l *Limiter) Usage(ctx context.Context, key string) (int, error) {
	rkey := keyPrefix + key
	now := time.Now()

	count, err := l.rdb.ZCount(ctx, rkey, msScore(now.Add(-l.window)), msScore(now)).Result()
	if err != nil {
		return 0, fmt.Errorf("flood guard usage: %w", err)
	}
	return int(count), nil
}

func msScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
