package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/video_catalog/internal/db/dbtest"
	"github.com/Skotchmaster/video_catalog/internal/events"
	"github.com/Skotchmaster/video_catalog/internal/hash"
	"github.com/Skotchmaster/video_catalog/internal/models"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		if ue, ok := e.Event.(events.UserEvent); ok {
			out = append(out, ue.Type)
		}
	}
	return out
}

func newTestAuthService(t *testing.T) (*AuthService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	return &AuthService{
		Repo:   repo.New(dbtest.New(t)),
		Tokens: tokens.NewIssuer([]byte("test-jwt-secret"), []byte("test-refresh-secret")),
		Events: pub,
	}, pub
}

func seedUser(t *testing.T, r *repo.GormRepo, username, password, role string) *models.User {
	t.Helper()
	pw, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: username, PasswordHash: pw, Role: role}
	require.NoError(t, r.CreateUserIfNotExists(context.Background(), u))
	return u
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Alice ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Equal(t, []string{events.TypeUserRegistered}, pub.types())

	_, err = svc.Register(ctx, "ALICE", "secret2")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "  ", password: "secret1"},
		{name: "empty password", username: "user", password: ""},
		{name: "short password", username: "user", password: "12345"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	res, err := svc.Login(ctx, "Alice", "password")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserID)
	assert.Equal(t, models.RoleUser, res.Role)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.Tokens.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)

	rc, err := tokens.RefreshClaimsFromToken(res.RefreshToken, svc.Tokens.RefreshSecret)
	require.NoError(t, err)
	stored, err := svc.Repo.FindRefreshByJTI(ctx, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, hash.Sha256Hex(res.RefreshToken), stored.Token)

	assert.Contains(t, pub.types(), events.TypeUserLoggedIn)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	_, err := svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "bob", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "password")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Refresh_SingleUse(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	first, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenReuseDetected)
	assert.Contains(t, pub.types(), events.TypeTokenReuseDetected)

	// reuse revokes the rest of the chain as well
	n, err := svc.Repo.CountRefreshForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenReuseDetected)
}

func TestAuthService_Refresh_ReuseRevokesOtherSessions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	laptop, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)
	phone, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, laptop.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, laptop.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReuseDetected)

	_, err = svc.Refresh(ctx, phone.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenReuseDetected)
}

func TestAuthService_Refresh_ConcurrentDoubleSpend(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	res, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, callers)
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Refresh(ctx, res.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrTokenReuseDetected)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAuthService_Refresh_DemotesExpiredVIP(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc.Repo, "alice", "password", models.RoleUser)
	require.NoError(t, svc.Repo.SetVIP(ctx, u.ID, time.Now().Add(time.Hour)))

	res, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)
	require.Equal(t, models.RoleVIP, res.Role)

	// two hours later the grant has run out
	svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	next, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, next.Role)

	claims, err := tokens.AccessClaimsFromToken(next.AccessToken, svc.Tokens.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	stored, err := svc.Repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	_, err := svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = svc.Refresh(ctx, "not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// an access token is not a refresh token
	access, _, err := svc.Tokens.Access(u.ID, u.Username, u.Role)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expiredIssuer := tokens.NewIssuer(svc.Tokens.AccessSecret, svc.Tokens.RefreshSecret)
	expiredIssuer.Now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expired, _, _, err := expiredIssuer.Refresh(u.ID)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_LogOut(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	res, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)

	require.NoError(t, svc.LogOut(ctx, res.RefreshToken))
	require.NoError(t, svc.LogOut(ctx, res.RefreshToken))
	require.NoError(t, svc.LogOut(ctx, ""))

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenReuseDetected)
}

func TestAuthService_SweepExpired(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	u := seedUser(t, svc.Repo, "alice", "password", models.RoleUser)

	require.NoError(t, svc.Repo.AddRefresh(ctx, "old", "jti-old", u.ID, time.Now().Add(-time.Minute)))
	res, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_OwnerPolicy(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	svc.OwnerUsername = "owner"
	ctx := context.Background()
	seedUser(t, svc.Repo, "owner", "password", models.RoleAdmin)
	seedUser(t, svc.Repo, "mallory", "password", models.RoleAdmin)

	res, err := svc.Login(ctx, "owner", "password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)

	res, err = svc.Login(ctx, "mallory", "password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, res.Role)
}

func TestAuthService_CreateUser(t *testing.T) {
	t.Parallel()

	svc, pub := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "Owner", "secret1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Empty(t, pub.types())

	_, err = svc.CreateUser(ctx, "other", "secret1", "root")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateUser(ctx, "owner", "secret1", models.RoleUser)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Login_UnknownUserStillHashes(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	seedUser(t, svc.Repo, "alice", "secret1", models.RoleUser)

	// the dummy hash is a real bcrypt hash at the cost used for stored passwords
	cost, err := bcrypt.Cost([]byte(dummyHash()))
	require.NoError(t, err)
	stored, err := svc.Repo.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	storedCost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, storedCost, cost)

	_, err = svc.Login(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
