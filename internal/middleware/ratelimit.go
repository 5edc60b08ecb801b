package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kavehm/watchlog/internal/logger"
)

// RateLimit returns a Redis-backed fixed-window limiter keyed per client
// IP and route. perMin is the number of requests allowed per minute; a
// zero limit or a nil Redis client disables limiting entirely. Redis
// errors fail open so an unavailable limiter never blocks traffic.
func RateLimit(rdb *redis.Client, perMin int) echo.MiddlewareFunc {
	if rdb == nil || perMin <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			window := time.Now().Unix() / 60
			key := fmt.Sprintf("rl:%s:%s:%d", c.RealIP(), c.Path(), window)

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logger.Get().WithError(err).Warn("rate limiter unavailable")
				return next(c)
			}
			if n == 1 {
				rdb.Expire(ctx, key, time.Minute)
			}

			remaining := int64(perMin) - n
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(perMin))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(perMin) {
				retry := 60 - (time.Now().Unix() % 60)
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": retry,
				})
			}
			return next(c)
		}
	}
}
