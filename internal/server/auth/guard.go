package auth

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/appli/internal/common"
	"google.golang.org/grpc/metadata"
)

// AccessGuard authenticates incoming requests from their access token.
// It fails closed: every problem is reported as common.ErrUnauthenticated
// with no hint of which check failed.
type AccessGuard struct {
	verifier *TokenVerifier
}

func NewAccessGuard(v *TokenVerifier) *AccessGuard {
	return &AccessGuard{verifier: v}
}

// Authenticate extracts the token from the access_token cookie, or failing
// that from an "Authorization: Bearer" header, and verifies it. A present
// cookie wins even when its token turns out to be invalid.
func (g *AccessGuard) Authenticate(r *http.Request) (Principal, error) {
	return g.verify(tokenFromRequest(r))
}

// AuthenticateMetadata is the gRPC counterpart of Authenticate. It reads the
// access_token metadata key first, then authorization.
func (g *AccessGuard) AuthenticateMetadata(md metadata.MD) (Principal, error) {
	return g.verify(tokenFromMetadata(md))
}

func (g *AccessGuard) verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, common.ErrUnauthenticated
	}
	p, ok := g.verifier.Decode(token)
	if !ok {
		return Principal{}, common.ErrUnauthenticated
	}
	return p, nil
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func tokenFromMetadata(md metadata.MD) string {
	if v := md.Get(common.AccessTokenMetadataKey); len(v) > 0 && v[0] != "" {
		return v[0]
	}
	if v := md.Get("authorization"); len(v) > 0 {
		return bearerToken(v[0])
	}
	return ""
}

// bearerToken returns the credentials of a "Bearer <token>" header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
