package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

type Auth struct {
	JWTSecret []byte

	// OwnerUsername, when set, restricts RequireOwner to that account.
	OwnerUsername string
}

func New(secret []byte, owner string) *Auth {
	return &Auth{JWTSecret: secret, OwnerUsername: owner}
}

// RequireAuth verifies the bearer access token and stores its claims.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		raw := bearerToken(c)
		if raw == "" {
			l.Warnw("auth_failed", "status", 401, "reason", "missing_token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims.Subject == "" {
			l.Warnw("auth_failed", "status", 401, "reason", "invalid_token", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(CtxClaims, claims)
		ctx := logging.IntoContext(c.Request().Context(), l.With("user_id", claims.Subject))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
