package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/keypool"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/metadata"
	"github.com/Skotchmaster/video_catalog/internal/transport"
)

type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (*metadata.MovieData, error)
}

type MetadataHTTP struct {
	Fetcher MetadataFetcher
}

func (h *MetadataHTTP) FetchMovieData(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "metadata.fetch")

	var req transport.FetchMovieDataRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	data, err := h.Fetcher.Fetch(ctx, req.VideoID)
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrInvalidVideoID):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid video id")
		case errors.Is(err, metadata.ErrVideoNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "video not found")
		case errors.Is(err, keypool.ErrAllKeysExhausted):
			l.Errorw("fetch_movie_data_failed", "status", 503, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "all ai keys are exhausted, try again later")
		case errors.Is(err, keypool.ErrProviderTransient):
			l.Warnw("fetch_movie_data_failed", "status", 502, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "ai provider is temporarily unavailable")
		default:
			l.Errorw("fetch_movie_data_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot fetch movie data")
		}
	}

	return c.JSON(http.StatusOK, data)
}
