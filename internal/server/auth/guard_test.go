package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func newGuard(t *testing.T) (*AccessGuard, string) {
	t.Helper()
	i, v := newPair(t, "guard-secret")
	tok, err := i.Issue(alice)
	require.NoError(t, err)
	return NewAccessGuard(v), tok
}

func TestAccessGuard_Authenticate(t *testing.T) {
	t.Parallel()

	g, tok := newGuard(t)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantOK  bool
	}{
		{"nothing", func(*http.Request) {}, false},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "access_token", Value: tok})
		}, true},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, true},
		{"bearer lower-case scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+tok) }, true},
		{"bearer upper-case scheme", func(r *http.Request) { r.Header.Set("Authorization", "BEARER "+tok) }, true},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+tok) }, false},
		{"bare token", func(r *http.Request) { r.Header.Set("Authorization", tok) }, false},
		{"empty bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") }, false},
		{"invalid bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, false},
		{"empty cookie falls back to header", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "access_token", Value: ""})
			r.Header.Set("Authorization", "Bearer "+tok)
		}, true},
		{"invalid cookie wins over valid header", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "access_token", Value: "broken"})
			r.Header.Set("Authorization", "Bearer "+tok)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(r)

			p, err := g.Authenticate(r)
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, alice, p)
				return
			}
			require.ErrorIs(t, err, common.ErrUnauthenticated)
			assert.Equal(t, "not authenticated", err.Error())
		})
	}
}

func TestAccessGuard_ExpiredTokenLooksLikeMissing(t *testing.T) {
	t.Parallel()

	i, v := newPair(t, "guard-secret")
	i.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := i.Issue(alice)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)

	_, errExpired := NewAccessGuard(v).Authenticate(r)
	_, errMissing := NewAccessGuard(v).Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, errMissing.Error(), errExpired.Error())
}

func TestAccessGuard_AuthenticateMetadata(t *testing.T) {
	t.Parallel()

	g, tok := newGuard(t)

	p, err := g.AuthenticateMetadata(metadata.Pairs("access_token", tok))
	require.NoError(t, err)
	assert.Equal(t, alice, p)

	p, err = g.AuthenticateMetadata(metadata.Pairs("authorization", "Bearer "+tok))
	require.NoError(t, err)
	assert.Equal(t, alice, p)

	_, err = g.AuthenticateMetadata(metadata.MD{})
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = g.AuthenticateMetadata(nil)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}
