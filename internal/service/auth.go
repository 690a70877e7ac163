package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/video_catalog/internal/events"
	"github.com/Skotchmaster/video_catalog/internal/hash"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/models"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

const minPasswordLen = 6

var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("refresh token missing")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")
	ErrNotFound           = errors.New("not found")
	ErrSingleOwner        = errors.New("only the owner may hold the admin role")
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Events events.Publisher

	// OwnerUsername, when set, is the only account that receives the admin
	// role in issued tokens.
	OwnerUsername string

	Now func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	UserID       string
	Username     string
	Role         string
	VIPExpiresAt *time.Time
}

var dummyHash = sync.OnceValue(func() string {
	h, err := hash.HashPassword("video-catalog-unknown-user")
	if err != nil {
		panic(err)
	}
	return h
})

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) publish(ctx context.Context, typ string, u *models.User) {
	if s.Events == nil {
		return
	}
	ev := events.UserEvent{Type: typ, UserID: u.ID, Username: u.Username, At: s.now().UTC()}
	if err := s.Events.PublishEvent(ctx, events.TopicUserEvents, u.ID, ev); err != nil {
		logging.FromContext(ctx).Errorw("kafka_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.CreateUser(ctx, username, password, models.RoleUser)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUserRegistered, user)
	return user, nil
}

// CreateUser stores a new account with the given role. Register uses it with
// role user; operators use it to bootstrap the owner account.
func (s *AuthService) CreateUser(ctx context.Context, username, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.create_user")

	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	username = NormalizeUsername(username)
	if username == "" || len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: username required and password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Errorw("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warnw("register_failed", "status", 409, "reason", "user_exists")
			return nil, ErrConflict
		}
		l.Errorw("register_error", "status", 500, "reason", "db_error", "error", err)
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = NormalizeUsername(username)
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// same bcrypt cost as a wrong password
			hash.CheckPassword(dummyHash(), password)
			l.Warnw("login_failed", "status", 401, "reason", "unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warnw("login_failed", "status", 401, "reason", "password_mismatch")
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		l.Errorw("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeUserLoggedIn, user)
	return res, nil
}

// Refresh redeems a refresh token exactly once and returns a fresh pair.
// A well-signed token that is no longer on record means it was already
// redeemed, so every other session of its owner is revoked as well.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Tokens.RefreshSecret)
	if err != nil {
		l.Warnw("refresh_failed", "status", 401, "reason", "invalid_token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	consumed, err := s.Repo.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !consumed {
		revoked, rErr := s.Repo.DeleteRefreshForUser(ctx, claims.Subject)
		if rErr != nil {
			l.Errorw("revoke_sessions_failed", "user_id", claims.Subject, "error", rErr)
		}
		l.Warnw("refresh_failed", "status", 403, "reason", "token_reuse_detected",
			"user_id", claims.Subject, "jti", claims.ID, "revoked_sessions", revoked)
		s.publish(ctx, events.TypeTokenReuseDetected, &models.User{ID: claims.Subject})
		return nil, ErrTokenReuseDetected
	}

	user, err := s.Repo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warnw("refresh_failed", "status", 401, "reason", "user_gone", "user_id", claims.Subject)
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s.issue(ctx, user)
}

// LogOut forgets the refresh token. Unknown or empty tokens are not an error.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.DeleteRefresh(ctx, refreshToken)
}

func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Repo.DeleteExpiredRefresh(ctx, s.now())
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Infow("refresh_sweep", "deleted", n)
	return n, nil
}

// currentRole is the role a token for u should carry right now. An expired
// vip is demoted and the demotion persisted.
func (s *AuthService) currentRole(ctx context.Context, u *models.User) (string, error) {
	if u.VIPExpired(s.now()) {
		if err := s.Repo.DemoteExpiredVIP(ctx, u.ID, s.now()); err != nil {
			return "", err
		}
		u.Role = models.RoleUser
	}
	if u.Role == models.RoleAdmin && s.OwnerUsername != "" && !strings.EqualFold(u.Username, s.OwnerUsername) {
		return models.RoleUser, nil
	}
	return u.Role, nil
}

func (s *AuthService) issue(ctx context.Context, u *models.User) (*LoginResult, error) {
	role, err := s.currentRole(ctx, u)
	if err != nil {
		return nil, err
	}

	accessToken, accessExp, err := s.Tokens.Access(u.ID, u.Username, role)
	if err != nil {
		return nil, err
	}
	refreshToken, jti, refreshExp, err := s.Tokens.Refresh(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefresh(ctx, refreshToken, jti, u.ID, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		UserID:       u.ID,
		Username:     u.Username,
		Role:         role,
		VIPExpiresAt: u.VIPExpiresAt,
	}, nil
}
