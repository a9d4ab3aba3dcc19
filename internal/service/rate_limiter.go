package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitDecision is the outcome of one Allow call
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a sliding window log over a Redis sorted set.
// Scores are microsecond timestamps.
type RateLimiter struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client redis.Cmdable) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow records the request if the window still has room
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitDecision, error) {
	now := r.now()
	redisKey := "ratelimit:" + key
	windowStart := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", windowStart)
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read rate limit window: %w", err)
	}

	decision := &RateLimitDecision{Limit: limit}

	if count.Val() >= int64(limit) {
		decision.RetryAfter = window
		if entries := oldest.Val(); len(entries) > 0 {
			oldestAt := time.UnixMicro(int64(entries[0].Score))
			decision.RetryAfter = window - now.Sub(oldestAt)
		}
		return decision, nil
	}

	pipe = r.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMicro()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, redisKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to record request: %w", err)
	}

	decision.Allowed = true
	decision.Remaining = limit - int(count.Val()) - 1
	return decision, nil
}
