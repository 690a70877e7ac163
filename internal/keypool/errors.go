package keypool

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoKeys            = errors.New("keypool: no api keys configured")
	ErrAllKeysExhausted  = errors.New("keypool: all api keys exhausted")
	ErrProviderTransient = errors.New("keypool: transient provider error")
	ErrProviderFatal     = errors.New("keypool: provider error")
)

// Kind is the classification a provider client attaches to its errors.
type Kind int

const (
	KindFatal Kind = iota
	KindTransient
	KindQuota
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindQuota:
		return "quota"
	case KindPermission:
		return "permission"
	default:
		return "fatal"
	}
}

// KeyRelated reports whether the failure is tied to the key that made the
// call, so a different key may succeed.
func (k Kind) KeyRelated() bool {
	return k == KindQuota || k == KindPermission
}

// ProviderError is an error from a provider client together with its Kind.
type ProviderError struct {
	Kind Kind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewError(kind Kind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Err: err}
}

// KindOf returns the Kind carried by err. Deadline errors that no client
// classified count as transient, anything else unclassified as fatal.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindFatal
}
