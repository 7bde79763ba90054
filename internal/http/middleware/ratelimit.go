package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a fixed-window per-IP limiter backed by Redis, intended for
// the public subscribe endpoint. When Redis is unreachable the request is
// allowed through: availability of the endpoint wins over strict limiting.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:subscribe:%s:%d", c.IP(), time.Now().Unix()/int64(window.Seconds()))

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(c.UserContext(), key)
		pipe.Expire(c.UserContext(), key, window)
		if _, err := pipe.Exec(c.UserContext()); err != nil {
			// Fail open.
			return c.Next()
		}

		if incr.Val() > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(window.Seconds())))
			return fiber.ErrTooManyRequests
		}
		return c.Next()
	}
}
