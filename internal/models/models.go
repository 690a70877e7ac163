package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleVIP   = "vip"
	RoleUser  = "user"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleVIP, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           string     `gorm:"primaryKey;size:36"        json:"id"`
	Username     string     `gorm:"uniqueIndex;not null"      json:"username"`
	PasswordHash string     `gorm:"not null"                  json:"-"`
	Role         string     `gorm:"not null;default:user"     json:"role"`
	VIPExpiresAt *time.Time `                                 json:"vipExpiresAt"`
	CreatedAt    time.Time  `gorm:"index"                     json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// VIPExpired reports whether a vip grant has run out at now.
func (u *User) VIPExpired(now time.Time) bool {
	return u.Role == RoleVIP && u.VIPExpiresAt != nil && now.After(*u.VIPExpiresAt)
}

// RefreshToken holds the sha256 of a refresh token, never the token itself.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"    json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"    json:"jti"`
	UserID    string    `gorm:"index;not null;size:36"  json:"user_id"`
	CreatedAt time.Time `                               json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null"          json:"expires_at"`
}

type Movie struct {
	ID          string    `gorm:"primaryKey;size:36"  json:"id"`
	Title       string    `gorm:"not null"            json:"title"`
	Year        int       `                           json:"year"`
	Rating      float64   `                           json:"rating"`
	Description string    `                           json:"description"`
	Actors      string    `                           json:"actors"`
	Lessons     string    `                           json:"lessons"`
	Category    string    `gorm:"index"               json:"category"`
	YouTubeID   string    `gorm:"column:yt_id"        json:"ytId"`
	CreatedAt   time.Time `gorm:"index"               json:"createdAt"`
	UpdatedAt   time.Time `                           json:"updatedAt"`
}

func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
