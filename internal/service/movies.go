package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/models"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/search"
	"github.com/Skotchmaster/video_catalog/internal/transport"
)

var ErrSearchDisabled = errors.New("search is not configured")

// MovieService is the catalog. Writes go to the database first and are then
// mirrored into the search index when one is configured.
type MovieService struct {
	Repo  *repo.GormRepo
	Index search.Index
}

func (s *MovieService) ListMovies(ctx context.Context, offset, limit int) ([]models.Movie, int64, error) {
	return s.Repo.ListMovies(ctx, offset, limit)
}

func (s *MovieService) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	m, err := s.Repo.GetMovie(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *MovieService) CreateMovie(ctx context.Context, req transport.MovieRequest) (*models.Movie, error) {
	m, err := movieFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateMovie(ctx, m); err != nil {
		return nil, err
	}
	s.index(ctx, m)
	return m, nil
}

func (s *MovieService) UpdateMovie(ctx context.Context, id string, req transport.MovieRequest) (*models.Movie, error) {
	m, err := movieFromRequest(req)
	if err != nil {
		return nil, err
	}
	updated, err := s.Repo.UpdateMovie(ctx, id, m)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.index(ctx, updated)
	return updated, nil
}

func (s *MovieService) DeleteMovie(ctx context.Context, id string) error {
	if err := s.Repo.DeleteMovie(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if s.Index != nil {
		if err := s.Index.DeleteMovie(ctx, id); err != nil {
			logging.FromContext(ctx).Errorw("search_delete_failed", "movie_id", id, "error", err)
		}
	}
	return nil
}

func (s *MovieService) Search(ctx context.Context, query string, from, size int) (int64, []models.Movie, error) {
	if s.Index == nil {
		return 0, nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	return s.Index.Search(ctx, query, from, size)
}

func (s *MovieService) index(ctx context.Context, m *models.Movie) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexMovie(ctx, m); err != nil {
		logging.FromContext(ctx).Errorw("search_index_failed", "movie_id", m.ID, "error", err)
	}
}

func movieFromRequest(req transport.MovieRequest) (*models.Movie, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}
	if req.Rating < 0 || req.Rating > 10 {
		return nil, fmt.Errorf("%w: rating must be between 0 and 10", ErrValidation)
	}
	if req.Year < 0 {
		return nil, fmt.Errorf("%w: year cannot be negative", ErrValidation)
	}
	return &models.Movie{
		Title:       title,
		Year:        req.Year,
		Rating:      req.Rating,
		Description: strings.TrimSpace(req.Description),
		Actors:      strings.TrimSpace(req.Actors),
		Lessons:     strings.TrimSpace(req.Lessons),
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		YouTubeID:   strings.TrimSpace(req.YouTubeID),
	}, nil
}
