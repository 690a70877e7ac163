package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/authz"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	authmw "github.com/Skotchmaster/video_catalog/internal/middleware/auth"
	"github.com/Skotchmaster/video_catalog/internal/service"
	"github.com/Skotchmaster/video_catalog/internal/transport"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func userError(c echo.Context, op string, err error) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, authz.ErrSelfModification):
		return echo.NewHTTPError(http.StatusBadRequest, "you cannot modify your own account")
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSingleOwner):
		return echo.NewHTTPError(http.StatusForbidden, "only the owner may hold the admin role")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, authz.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	default:
		l.Errorw(op+"_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, op+" failed")
	}
}

func (h *UsersHTTP) ListUsers(c echo.Context) error {
	users, err := h.Svc.ListUsers(c.Request().Context())
	if err != nil {
		return userError(c, "list_users", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UsersHTTP) UpdateRole(c echo.Context) error {
	var req transport.UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.UpdateRole(c.Request().Context(), authmw.Claims(c), c.Param("id"), req.Role)
	if err != nil {
		return userError(c, "update_role", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) DeleteUser(c echo.Context) error {
	if err := h.Svc.DeleteUser(c.Request().Context(), authmw.Claims(c), c.Param("id")); err != nil {
		return userError(c, "delete_user", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UsersHTTP) AddVIPDays(c echo.Context) error {
	var req transport.AddVIPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.AddVIPDays(c.Request().Context(), c.Param("id"), req.Days)
	if err != nil {
		return userError(c, "add_vip", err)
	}
	return c.JSON(http.StatusOK, user)
}
