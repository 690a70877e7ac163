package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/authz"
)

// RequireRole lets the request through only when the caller holds one of
// roles. It must run after RequireAuth.
func (m *Auth) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if d := authz.RequireRole(Claims(c), roles...); !d.Allowed {
				return deny(c, d)
			}
			return next(c)
		}
	}
}

// RequireOwner restricts the route to the configured owner account.
func (m *Auth) RequireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d := authz.RequireOwner(Claims(c), m.OwnerUsername); !d.Allowed {
			return deny(c, d)
		}
		return next(c)
	}
}
