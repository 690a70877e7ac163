package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	typeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs access and refresh tokens with separate HS256 secrets.
type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret []byte) *Issuer {
	return &Issuer{AccessSecret: accessSecret, RefreshSecret: refreshSecret, Now: time.Now}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

func (i *Issuer) Access(userID, username, role string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(AccessTTL)
	claims := AccessClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (i *Issuer) Refresh(userID string) (token, jti string, exp time.Time, err error) {
	now := i.now()
	exp = now.Add(RefreshTTL)
	jti = uuid.NewString()
	claims := RefreshClaims{
		Type: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.RefreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, exp, nil
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}
}

func AccessClaimsFromToken(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	if _, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(accessSecret), jwt.WithExpirationRequired()); err != nil {
		return nil, err
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	if _, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(refreshSecret), jwt.WithExpirationRequired()); err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh || claims.Subject == "" || claims.ID == "" {
		return nil, ErrWrongTokenType
	}
	return &claims, nil
}
