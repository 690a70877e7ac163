package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/service"
	"github.com/Skotchmaster/video_catalog/internal/transport"
	"github.com/Skotchmaster/video_catalog/internal/util"
)

type MoviesHTTP struct {
	Svc *service.MovieService
}

func movieID(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id.String(), nil
}

func (h *MoviesHTTP) GetMovies(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movies.get_movies")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	items, total, err := h.Svc.ListMovies(ctx, offset, limit)
	if err != nil {
		l.Errorw("get_movies_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list movies")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, limit, total),
	})
}

func (h *MoviesHTTP) GetMovie(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movies.get_movie")

	id, err := movieID(c)
	if err != nil {
		return err
	}

	movie, err := h.Svc.GetMovie(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "movie not found")
		}
		l.Errorw("get_movie_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get movie")
	}
	return c.JSON(http.StatusOK, movie)
}

func (h *MoviesHTTP) SearchMovies(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movies.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
		case errors.Is(err, service.ErrSearchDisabled):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not available")
		default:
			l.Errorw("search_failed", "status", 502, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "search failed")
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.Meta(page, limit, total),
	})
}

func (h *MoviesHTTP) CreateMovie(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movies.create")

	var req transport.MovieRequest
	if err := c.Bind(&req); err != nil {
		l.Warnw("movie_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	movie, err := h.Svc.CreateMovie(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Errorw("movie_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add movie")
	}

	l.Infow("create_movie_success", "movie_id", movie.ID)
	return c.JSON(http.StatusCreated, movie)
}

func (h *MoviesHTTP) UpdateMovie(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movies.update")

	id, err := movieID(c)
	if err != nil {
		return err
	}

	var req transport.MovieRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	movie, err := h.Svc.UpdateMovie(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "movie not found")
		default:
			l.Errorw("movie_update_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update movie")
		}
	}
	return c.JSON(http.StatusOK, movie)
}

func (h *MoviesHTTP) DeleteMovie(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "movies.delete")

	id, err := movieID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteMovie(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "movie not found")
		}
		l.Errorw("movie_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete movie")
	}
	return c.NoContent(http.StatusNoContent)
}
