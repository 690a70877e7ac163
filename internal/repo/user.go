package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/video_catalog/internal/models"
)

// CreateUserIfNotExists inserts u unless the username is taken. A concurrent
// insert of the same name that wins the race surfaces as ErrUserAlreadyExist too.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("username = ?", u.Username).FirstOrCreate(u)
	if tx.Error != nil {
		return duplicate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UpdateRole(ctx context.Context, id, role string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetVIP makes the user a vip until expiresAt. Admins keep their role and only
// get the expiry recorded.
func (r *GormRepo) SetVIP(ctx context.Context, id string, expiresAt time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"role":           gorm.Expr("CASE WHEN role = ? THEN role ELSE ? END", models.RoleAdmin, models.RoleVIP),
			"vip_expires_at": expiresAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DemoteExpiredVIP flips an expired vip to user. The conditions keep a
// concurrent extension from being overwritten.
func (r *GormRepo) DemoteExpiredVIP(ctx context.Context, id string, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ? AND vip_expires_at < ?", id, models.RoleVIP, now.UTC()).
		Update("role", models.RoleUser).Error
}

// DeleteUser removes the user together with every refresh token it owns.
func (r *GormRepo) DeleteUser(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) CountUsers(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
