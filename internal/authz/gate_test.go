package authz

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

func claimsFor(id, username, role string) *tokens.AccessClaims {
	return &tokens.AccessClaims{
		Username:         username,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims *tokens.AccessClaims
		roles  []string
		want   Decision
	}{
		{name: "nil claims", claims: nil, roles: []string{"admin"}, want: Deny(ReasonUnauthenticated)},
		{name: "empty subject", claims: claimsFor("", "a", "admin"), roles: []string{"admin"}, want: Deny(ReasonUnauthenticated)},
		{name: "matching role", claims: claimsFor("1", "a", "admin"), roles: []string{"admin"}, want: Allow()},
		{name: "one of several", claims: claimsFor("1", "a", "vip"), roles: []string{"admin", "vip"}, want: Allow()},
		{name: "wrong role", claims: claimsFor("1", "a", "user"), roles: []string{"admin"}, want: Deny(ReasonInsufficientRole)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RequireRole(tt.claims, tt.roles...))
		})
	}
}

func TestRequireOwner(t *testing.T) {
	t.Parallel()

	admin := claimsFor("1", "Owner@Example.com", "admin")
	assert.True(t, RequireOwner(admin, "owner@example.com").Allowed)
	assert.True(t, RequireOwner(admin, "").Allowed)

	d := RequireOwner(claimsFor("2", "other", "admin"), "owner@example.com")
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err(), ErrNotOwner)

	assert.ErrorIs(t, RequireOwner(nil, "owner").Err(), ErrUnauthenticated)
}

func TestRequireExactPrincipal(t *testing.T) {
	t.Parallel()

	c := claimsFor("1", "admin", "admin")
	assert.ErrorIs(t, RequireExactPrincipal(c, "1").Err(), ErrSelfModification)
	assert.NoError(t, RequireExactPrincipal(c, "2").Err())
	assert.ErrorIs(t, RequireExactPrincipal(nil, "2").Err(), ErrUnauthenticated)
}

func TestDecisionErr(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Allow().Err())
	assert.ErrorIs(t, Deny(ReasonInsufficientRole).Err(), ErrInsufficientRole)
	assert.ErrorIs(t, Deny(ReasonUnauthenticated).Err(), ErrUnauthenticated)
}
