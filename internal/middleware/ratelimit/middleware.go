// Package ratelimit throttles requests per client IP.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/logging"
)

// Middleware rejects a client with 429 once it goes over the limit. When the
// limiter itself fails the request is let through.
func Middleware(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)
			ip := c.RealIP()

			res, err := limiter.Allow(ctx, ip)
			if err != nil {
				l.Errorw("rate_limit_check_failed", "remote_ip", ip, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retry := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				l.Warnw("rate_limit_exceeded", "status", 429, "remote_ip", ip, "reset_at", res.ResetAt)
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}
