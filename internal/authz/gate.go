// Package authz decides whether a verified identity may perform an action.
// Every function here is a pure decision over its inputs.
package authz

import (
	"errors"
	"strings"

	"github.com/Skotchmaster/video_catalog/internal/tokens"
)

type Reason string

const (
	ReasonNone             Reason = ""
	ReasonUnauthenticated  Reason = "unauthenticated"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonSelfModification Reason = "self_modification"
	ReasonNotOwner         Reason = "not_owner"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrSelfModification = errors.New("cannot modify own account")
	ErrNotOwner         = errors.New("not the system owner")
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err returns nil for an allowed decision and the sentinel for the deny
// reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonInsufficientRole:
		return ErrInsufficientRole
	case ReasonSelfModification:
		return ErrSelfModification
	case ReasonNotOwner:
		return ErrNotOwner
	default:
		return ErrUnauthenticated
	}
}

func authenticated(claims *tokens.AccessClaims) bool {
	return claims != nil && claims.Subject != "" && claims.Role != ""
}

// RequireRole allows when the claims carry one of roles.
func RequireRole(claims *tokens.AccessClaims, roles ...string) Decision {
	if !authenticated(claims) {
		return Deny(ReasonUnauthenticated)
	}
	for _, r := range roles {
		if claims.Role == r {
			return Allow()
		}
	}
	return Deny(ReasonInsufficientRole)
}

// RequireOwner allows only the principal named owner. An empty owner means no
// single-owner policy is configured and everyone authenticated passes.
func RequireOwner(claims *tokens.AccessClaims, owner string) Decision {
	if !authenticated(claims) {
		return Deny(ReasonUnauthenticated)
	}
	if owner == "" || strings.EqualFold(claims.Username, owner) {
		return Allow()
	}
	return Deny(ReasonNotOwner)
}

// RequireExactPrincipal denies when the caller is the target of the action,
// e.g. an admin deleting or demoting their own account.
func RequireExactPrincipal(claims *tokens.AccessClaims, targetUserID string) Decision {
	if !authenticated(claims) {
		return Deny(ReasonUnauthenticated)
	}
	if claims.Subject == targetUserID {
		return Deny(ReasonSelfModification)
	}
	return Allow()
}
