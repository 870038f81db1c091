// ratelimit.go implements a per-IP rate limiter backed by Redis counters
// with explicit TTL eviction, so limits are shared across restarts and
// never grow unbounded in process memory. Designed for auth endpoints.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window duration. Returns 429 when exceeded.
//
// Each (name, IP) pair maps to one Redis counter keyed by the current
// window; INCR creates it, EXPIRE bounds its lifetime. Counting is
// approximate at window boundaries, which is acceptable for abuse
// protection. Redis errors fail open so an outage never locks users out.
func RateLimit(rdb *redis.Client, name string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			ctx := c.Request().Context()

			bucket := time.Now().Unix() / int64(window.Seconds())
			key := fmt.Sprintf("ratelimit:%s:%s:%d", name, ip, bucket)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				slog.Warn("rate limit counter unavailable",
					slog.String("name", name),
					slog.Any("error", err),
				)
				return next(c)
			}
			if count == 1 {
				// First hit in this window owns the TTL. Double the window
				// so the key outlives boundary reads before eviction.
				rdb.Expire(ctx, key, window*2)
			}

			if count > int64(maxRequests) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"status":  "fail",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}
