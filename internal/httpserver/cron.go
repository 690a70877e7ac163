package httpserver

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/notify"
	"github.com/Skotchmaster/video_catalog/internal/service"
	"github.com/Skotchmaster/video_catalog/internal/transport"
)

// RequireCronSecret accepts only "Authorization: Bearer <secret>". An empty
// secret rejects every request.
func RequireCronSecret(secret string) echo.MiddlewareFunc {
	want := []byte("Bearer " + secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(echo.HeaderAuthorization))
			if secret == "" || subtle.ConstantTimeCompare(got, want) != 1 {
				logging.FromContext(c.Request().Context()).Warnw("cron_auth_failed", "status", 401)
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}

type CronHTTP struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Alerter notify.Alerter
}

func (h *CronHTTP) Cleanup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cron.cleanup")

	n, err := h.Auth.SweepExpired(ctx)
	if err != nil {
		l.Errorw("cleanup_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cleanup failed")
	}

	l.Infow("cleanup_done", "deleted", n)
	return c.JSON(http.StatusOK, transport.CleanupResponse{DeletedCount: n})
}

func (h *CronHTTP) DailySummary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cron.daily_summary")

	sum, err := h.Users.DailySummary(ctx)
	if err != nil {
		l.Errorw("daily_summary_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "summary failed")
	}

	if h.Alerter != nil {
		msg := fmt.Sprintf("Daily summary: %d new users in the last 24h, %d users total", sum.NewUsers, sum.TotalUsers)
		if err := h.Alerter.Alert(ctx, msg); err != nil {
			l.Warnw("daily_summary_alert_failed", "error", err)
		}
	}

	return c.JSON(http.StatusOK, sum)
}
