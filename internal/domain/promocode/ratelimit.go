package promocode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter caps redemption attempts per user in a fixed window.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: redisClient, limit: limit, window: window}
}

// Allow checks if user may attempt another redemption
func (rl *RateLimiter) Allow(ctx context.Context, userID uuid.UUID) bool {
	if rl == nil || rl.redis == nil || rl.limit <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:promo_redeem:%s", userID)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return true // fail open
	}
	if count == 1 {
		rl.redis.Expire(ctx, key, rl.window)
	}

	return count <= int64(rl.limit)
}
