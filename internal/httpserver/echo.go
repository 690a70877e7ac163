package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	loggingmw "github.com/Skotchmaster/video_catalog/internal/middleware/logging"
)

// NewEcho builds the server with timeouts and the common middleware.
// Client addresses come from the socket unless trustProxy is set, in which
// case X-Forwarded-For is honoured for hops from private and loopback ranges.
func NewEcho(log *zap.SugaredLogger, trustProxy bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	if trustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.Secure(), middleware.BodyLimit("1M"), loggingmw.RequestLogger(log))
	return e
}
