package repo

import (
	"context"

	"github.com/Skotchmaster/video_catalog/internal/models"
)

func (r *GormRepo) ListMovies(ctx context.Context, offset, limit int) ([]models.Movie, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Movie{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Movie
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormRepo) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	var m models.Movie
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *GormRepo) CreateMovie(ctx context.Context, m *models.Movie) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// UpdateMovie overwrites the editable fields of the movie with id and returns
// the stored result.
func (r *GormRepo) UpdateMovie(ctx context.Context, id string, m *models.Movie) (*models.Movie, error) {
	res := r.DB.WithContext(ctx).Model(&models.Movie{}).Where("id = ?", id).
		Select("title", "year", "rating", "description", "actors", "lessons", "category", "yt_id", "updated_at").
		Updates(m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetMovie(ctx, id)
}

func (r *GormRepo) DeleteMovie(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Movie{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
