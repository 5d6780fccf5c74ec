package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the signed access token payload:
//
//	{"user": {"id": ..., "email": ..., "role": ...}, "exp": ..., "jti": ...}
type Claims struct {
	User Principal `json:"user"`
	jwt.RegisteredClaims
}

// TokenIssuer mints HS256 access tokens. The secret is copied at
// construction and never changes afterwards.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. A non-positive
// lifetime falls back to 900 seconds. An empty secret is a configuration
// error.
func NewTokenIssuer(secret []byte, lifetime time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: token secret key is empty", common.ErrConfiguration)
	}
	if lifetime <= 0 {
		lifetime = 900 * time.Second
	}
	return &TokenIssuer{
		secret:   append([]byte(nil), secret...),
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Lifetime is the default lifetime of issued tokens.
func (i *TokenIssuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue signs a token for p with the configured lifetime.
func (i *TokenIssuer) Issue(p Principal) (string, error) {
	return i.IssueWithLifetime(p, i.lifetime)
}

// IssueWithLifetime signs a token for p that expires after lifetime.
func (i *TokenIssuer) IssueWithLifetime(p Principal, lifetime time.Duration) (string, error) {
	if lifetime <= 0 {
		return "", fmt.Errorf("%w: token lifetime must be positive", common.ErrInvalidInput)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(i.now().Add(lifetime)),
			ID:        uuid.NewString(),
		},
	})

	return token.SignedString(i.secret)
}

// TokenVerifier checks tokens produced by TokenIssuer.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier returns a verifier for tokens signed with secret.
func NewTokenVerifier(secret []byte) (*TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: token secret key is empty", common.ErrConfiguration)
	}
	return &TokenVerifier{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}, nil
}

// Decode validates token and returns the Principal it carries. Only HS256
// is accepted and exp is mandatory. Any failure (bad signature, other
// algorithm, expired, malformed, missing user id or jti, unknown role)
// yields false.
func (v *TokenVerifier) Decode(token string) (Principal, bool) {
	if token == "" {
		return Principal{}, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, false
	}

	if claims.User.ID == "" || claims.ID == "" || !claims.User.Role.Known() {
		return Principal{}, false
	}

	return claims.User, true
}
