package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/service"
	"github.com/Skotchmaster/video_catalog/internal/transport"
)

type AuthHTTP struct {
	Svc           *service.AuthService
	SecureCookies bool
}

func (h *AuthHTTP) setRefreshCookie(c echo.Context, res *service.LoginResult) {
	c.SetCookie(CreateCookie(RefreshCookieName, res.RefreshToken, RefreshCookiePath, res.RefreshExp, h.SecureCookies))
}

func (h *AuthHTTP) clearRefreshCookie(c echo.Context) {
	c.SetCookie(DeleteCookie(RefreshCookieName, RefreshCookiePath, h.SecureCookies))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warnw("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "username is required and password must be at least 6 characters")
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "register failed")
		}
	}

	l.Infow("register_successful", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warnw("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "username and password required")
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		default:
			l.Errorw("login_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	h.setRefreshCookie(c, res)
	l.Infow("login_successful", "user_id", res.UserID, "role", res.Role)

	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken:  res.AccessToken,
		Role:         res.Role,
		Username:     res.Username,
		VIPExpiresAt: res.VIPExpiresAt,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var raw string
	if cookie, err := c.Cookie(RefreshCookieName); err == nil {
		raw = cookie.Value
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingToken):
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		case errors.Is(err, service.ErrInvalidToken):
			h.clearRefreshCookie(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrTokenReuseDetected):
			h.clearRefreshCookie(c)
			return echo.NewHTTPError(http.StatusForbidden, "session expired, please log in again")
		default:
			l.Errorw("refresh_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
		}
	}

	h.setRefreshCookie(c, res)
	return c.JSON(http.StatusOK, transport.RefreshResponse{
		AccessToken: res.AccessToken,
		Role:        res.Role,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if cookie, err := c.Cookie(RefreshCookieName); err == nil {
		if err := h.Svc.LogOut(ctx, cookie.Value); err != nil {
			h.clearRefreshCookie(c)
			l.Errorw("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	h.clearRefreshCookie(c)
	l.Infow("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
