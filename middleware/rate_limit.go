// middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig bounds requests per client IP inside a fixed window.
type RateLimitConfig struct {
	Scope  string // key namespace, e.g. "track"
	Limit  int64  // max requests per window
	Window time.Duration
}

// RateLimitMiddleware enforces a shared per-IP counter in redis (INCR + EXPIRE)
// so limits hold across server instances. Fails open when redis is down —
// tracking traffic must never be blocked by the limiter's own backend.
func RateLimitMiddleware(rdb *redis.Client, cfg RateLimitConfig) fiber.Handler {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}

		key := fmt.Sprintf("rl:%s:%s", cfg.Scope, c.IP())
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("⚠️  [RATE_LIMIT] redis unavailable, failing open: %v", err)
			return c.Next()
		}
		if count == 1 {
			// first hit in this window starts the clock
			rdb.Expire(ctx, key, cfg.Window)
		}

		if count > cfg.Limit {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, slow down",
			})
		}

		return c.Next()
	}
}
