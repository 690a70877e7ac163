package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/video_catalog/internal/hash"
	"github.com/Skotchmaster/video_catalog/internal/models"
)

func (r *GormRepo) AddRefresh(ctx context.Context, refreshToken, jti, userID string, expiresAt time.Time) error {
	refreshModel := models.RefreshToken{
		Token:     hash.Sha256Hex(refreshToken),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
	return r.DB.WithContext(ctx).Create(&refreshModel).Error
}

// ConsumeRefresh deletes the row for refreshToken and reports whether this
// call was the one that removed it. Of two callers racing on the same token
// at most one sees true.
func (r *GormRepo) ConsumeRefresh(ctx context.Context, refreshToken string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("token = ?", hash.Sha256Hex(refreshToken)).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DeleteRefresh(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).
		Where("token = ?", hash.Sha256Hex(refreshToken)).
		Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteRefreshForUser(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteExpiredRefresh(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (r *GormRepo) CountRefreshForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
