package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/authz"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

const CtxClaims = "claims"

// Claims returns the verified access claims stored by RequireAuth, or nil.
func Claims(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(CtxClaims).(*tokens.AccessClaims)
	return claims
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// deny turns a gate decision into the matching HTTP error. The reason is
// logged, the response stays generic.
func deny(c echo.Context, d authz.Decision) error {
	l := logging.FromContext(c.Request().Context())
	switch d.Reason {
	case authz.ReasonUnauthenticated:
		l.Warnw("auth_denied", "status", 401, "reason", d.Reason)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	default:
		l.Warnw("auth_denied", "status", 403, "reason", d.Reason)
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
}
