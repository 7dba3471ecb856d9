// ratelimit.go implements a per-IP rate limiter using a fixed window
// counter stored in Redis. Designed for the auth endpoints (login,
// register) where brute-force and credential stuffing are a concern.
// Keeping the counters in Redis means the limit holds across restarts
// and across replicas sharing the same Redis instance.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces limiter counters in Redis.
const rateLimitKeyPrefix = "ratelimit:"

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window duration. Returns 429 when exceeded.
//
// The counter key is scoped to the route path, so login and register
// windows are tracked independently for the same IP. If Redis is
// unreachable the limiter fails open: availability of the auth endpoints
// matters more than strict enforcement.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, c.Path(), c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("key", key),
					slog.Any("error", err),
				)
				return next(c)
			}

			// First hit in this window starts the expiry clock.
			if count == 1 {
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					slog.Warn("failed to set rate limit expiry",
						slog.String("key", key),
						slog.Any("error", err),
					)
				}
			}

			if count > int64(maxRequests) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "Too Many Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}

			return next(c)
		}
	}
}
