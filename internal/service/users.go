package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/video_catalog/internal/authz"
	"github.com/Skotchmaster/video_catalog/internal/events"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/models"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

const (
	DefaultVIPDays = 30
	MaxVIPDays     = 3650
)

type UserService struct {
	Repo   *repo.GormRepo
	Events events.Publisher

	OwnerUsername string

	Now func() time.Time
}

type Summary struct {
	NewUsers   int64 `json:"newUsers"`
	TotalUsers int64 `json:"totalUsers"`
}

func (s *UserService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// UpdateRole changes the role of target on behalf of actor. An actor can never
// change their own role.
func (s *UserService) UpdateRole(ctx context.Context, actor *tokens.AccessClaims, targetID, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update_role", "target", targetID)

	if err := authz.RequireExactPrincipal(actor, targetID).Err(); err != nil {
		l.Warnw("update_role_denied", "status", 400, "reason", "self_modification")
		return nil, err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	target, err := s.Repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role == models.RoleAdmin && s.OwnerUsername != "" && !strings.EqualFold(target.Username, s.OwnerUsername) {
		l.Warnw("update_role_denied", "status", 403, "reason", "single_owner")
		return nil, ErrSingleOwner
	}

	if err := s.Repo.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	target.Role = role

	// a vip without an unexpired grant gets the default term
	if role == models.RoleVIP && (target.VIPExpiresAt == nil || !target.VIPExpiresAt.After(s.now())) {
		exp := s.now().Add(DefaultVIPDays * 24 * time.Hour).UTC()
		if err := s.Repo.SetVIP(ctx, targetID, exp); err != nil {
			return nil, err
		}
		target.VIPExpiresAt = &exp
	}
	l.Infow("update_role_success", "role", role)
	return target, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor *tokens.AccessClaims, targetID string) error {
	l := logging.FromContext(ctx).With("svc", "users.delete", "target", targetID)

	if err := authz.RequireExactPrincipal(actor, targetID).Err(); err != nil {
		l.Warnw("delete_user_denied", "status", 400, "reason", "self_modification")
		return err
	}
	if err := s.Repo.DeleteUser(ctx, targetID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.Events != nil {
		ev := events.UserEvent{Type: events.TypeUserDeleted, UserID: targetID, At: s.now().UTC()}
		if err := s.Events.PublishEvent(ctx, events.TopicUserEvents, targetID, ev); err != nil {
			l.Errorw("kafka_publish_failed", "type", events.TypeUserDeleted, "error", err)
		}
	}
	l.Infow("delete_user_success")
	return nil
}

// AddVIPDays grants vip for days, counted from the current expiry when it is
// still in the future and from now otherwise.
func (s *UserService) AddVIPDays(ctx context.Context, targetID string, days int) (*models.User, error) {
	if days <= 0 || days > MaxVIPDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrValidation, MaxVIPDays)
	}

	user, err := s.Repo.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	base := s.now()
	if user.VIPExpiresAt != nil && user.VIPExpiresAt.After(base) {
		base = *user.VIPExpiresAt
	}
	exp := base.Add(time.Duration(days) * 24 * time.Hour).UTC()

	if err := s.Repo.SetVIP(ctx, targetID, exp); err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		user.Role = models.RoleVIP
	}
	user.VIPExpiresAt = &exp

	logging.FromContext(ctx).Infow("vip_extended", "target", targetID, "days", days, "expires_at", exp)
	return user, nil
}

func (s *UserService) DailySummary(ctx context.Context) (*Summary, error) {
	since := s.now().Add(-24 * time.Hour)
	fresh, err := s.Repo.CountUsers(ctx, since)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.CountUsers(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	return &Summary{NewUsers: fresh, TotalUsers: total}, nil
}
