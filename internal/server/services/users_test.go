package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newUserService(t *testing.T, iterations int) (*UserService, *fakeUsersRepo, *auth.TokenVerifier) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	repo := newFakeUsersRepo()

	issuer, err := auth.NewTokenIssuer([]byte(testSecret), time.Hour)
	require.NoError(t, err)
	verifier, err := auth.NewTokenVerifier([]byte(testSecret))
	require.NoError(t, err)

	svc := NewUserService(db, &fakeRepoManager{u: repo}, auth.NewPasswordVaultWithIterations(iterations), issuer, logging.Nop{})
	return svc, repo, verifier
}

func TestRegister_Success(t *testing.T) {
	svc, repo, _ := newUserService(t, 1000)

	u, err := svc.Register(context.Background(), "  Alice ", " Alice@Example.COM ", "password1")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "user", u.Role)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "pbkdf2_sha256$1000$"))
	assert.NotContains(t, u.PasswordHash, "password1")

	_, stored := repo.byEmail["alice@example.com"]
	assert.True(t, stored)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newUserService(t, 1000)

	tests := []struct {
		name, email, password string
	}{
		{"", "a@b.co", "password1"},
		{"   ", "a@b.co", "password1"},
		{"A", "not-an-email", "password1"},
		{"A", "a@b", "password1"},
		{"A", "a b@c.de", "password1"},
		{"A", "a@b.co", "short1"},
		{"A", "a@b.co", "onlyletters"},
		{"A", "a@b.co", "1234567890"},
		{"A", "a@b.co", strings.Repeat("a1", 65)},
		{"A", "a@b.co", string([]byte{0xff, 'a', '1', 'b', 'c', 'd', 'e', 'f'})},
	}
	for _, tt := range tests {
		_, err := svc.Register(context.Background(), tt.name, tt.email, tt.password)
		assert.ErrorIs(t, err, common.ErrInvalidInput, "%+v", tt)
	}
}

func TestRegister_PasswordBoundaries(t *testing.T) {
	svc, _, _ := newUserService(t, 1000)

	_, err := svc.Register(context.Background(), "A", "min@b.co", "abcdefg1")
	assert.NoError(t, err, "8 characters")

	_, err = svc.Register(context.Background(), "A", "max@b.co", strings.Repeat("a", 127)+"1")
	assert.NoError(t, err, "128 characters")
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newUserService(t, 1000)

	_, err := svc.Register(context.Background(), "A", "a@b.co", "password1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "B", "A@B.CO", "password2")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_RepoError(t *testing.T) {
	svc, repo, _ := newUserService(t, 1000)
	repo.err = errors.New("db down")

	_, err := svc.Register(context.Background(), "A", "a@b.co", "password1")
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "USER_CREATE_FAILED", oopsErr.Code())
}

func TestCreateAdmin(t *testing.T) {
	svc, _, _ := newUserService(t, 1000)

	u, err := svc.CreateAdmin(context.Background(), "Root", "root@appli.dev", "password1")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
}

func TestLogin_Success(t *testing.T) {
	svc, _, verifier := newUserService(t, 1000)
	u, err := svc.Register(context.Background(), "Alice", "alice@example.com", "password1")
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), " ALICE@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	p, ok := verifier.Decode(res.AccessToken)
	require.True(t, ok)
	assert.Equal(t, auth.Principal{ID: u.ID, Email: "alice@example.com", Role: auth.RoleUser}, p)
}

func TestLogin_TokenPassesAccessGuard(t *testing.T) {
	svc, _, verifier := newUserService(t, 1000)
	guard := auth.NewAccessGuard(verifier)

	u, err := svc.Register(context.Background(), "Alice", "alice@x.com", "password1")
	require.NoError(t, err)
	res, err := svc.Login(context.Background(), "alice@x.com", "password1")
	require.NoError(t, err)

	want := auth.Principal{ID: u.ID, Email: "alice@x.com", Role: auth.RoleUser}

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/appli/v1/auth/me", nil)
		r.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: res.AccessToken})
		p, err := guard.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	})

	t.Run("bearer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/appli/v1/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+res.AccessToken)
		p, err := guard.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	})
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc, _, _ := newUserService(t, 1000)
	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, errWrong := svc.Login(context.Background(), "alice@example.com", "password2")
	_, errUnknown := svc.Login(context.Background(), "bob@example.com", "password1")

	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLogin_RepoError(t *testing.T) {
	svc, repo, _ := newUserService(t, 1000)
	repo.err = errors.New("db down")

	_, err := svc.Login(context.Background(), "alice@example.com", "password1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_RehashesWeakCredential(t *testing.T) {
	weak, repo, _ := newUserService(t, 500)
	_, err := weak.Register(context.Background(), "Alice", "alice@example.com", "password1")
	require.NoError(t, err)

	strong := NewUserService(weak.db, weak.repomanager, auth.NewPasswordVaultWithIterations(2000), weak.issuer, logging.Nop{})
	_, err = strong.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(repo.updatedHash, "pbkdf2_sha256$2000$"))

	_, err = strong.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err, "new credential still verifies")
}

func TestLogin_RehashFailureIsNotFatal(t *testing.T) {
	weak, repo, _ := newUserService(t, 500)
	_, err := weak.Register(context.Background(), "Alice", "alice@example.com", "password1")
	require.NoError(t, err)
	repo.updateErr = errors.New("read only")

	strong := NewUserService(weak.db, weak.repomanager, auth.NewPasswordVaultWithIterations(2000), weak.issuer, logging.Nop{})
	_, err = strong.Login(context.Background(), "alice@example.com", "password1")
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	svc, repo, _ := newUserService(t, 1000)
	u, err := svc.Register(context.Background(), "Alice", "alice@example.com", "password1")
	require.NoError(t, err)

	got, err := svc.Me(context.Background(), auth.Principal{ID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = svc.Me(context.Background(), auth.Principal{ID: "not-a-uuid"})
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	delete(repo.byEmail, "alice@example.com")
	_, err = svc.Me(context.Background(), auth.Principal{ID: u.ID})
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	repo.err = errors.New("db down")
	_, err = svc.Me(context.Background(), auth.Principal{ID: u.ID})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrUnauthenticated)
}

