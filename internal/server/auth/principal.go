// Package auth holds the authentication and authorization core of the
// portal: password hashing, access token issuance and verification, request
// authentication and role checks.
package auth

import (
	"context"
	"strings"
)

// Role is an authorization role carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Normalize trims surrounding whitespace and lower-cases r.
func (r Role) Normalize() Role {
	return Role(strings.ToLower(strings.TrimSpace(string(r))))
}

// Known reports whether r, once normalized, is one of the defined roles.
func (r Role) Known() bool {
	switch r.Normalize() {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated identity of a request. It is rebuilt from
// the access token on every request and never persisted.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the Principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
