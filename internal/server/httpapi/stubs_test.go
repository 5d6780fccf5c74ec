package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/dmitrijs2005/appli/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-with-enough-bytes")

type stubUsers struct {
	register func(ctx context.Context, name, email, password string) (*models.User, error)
	login    func(ctx context.Context, email, password string) (*services.LoginResult, error)
	me       func(ctx context.Context, p auth.Principal) (*models.User, error)
}

func (s *stubUsers) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.register(ctx, name, email, password)
}

func (s *stubUsers) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	return s.login(ctx, email, password)
}

func (s *stubUsers) Me(ctx context.Context, p auth.Principal) (*models.User, error) {
	return s.me(ctx, p)
}

type stubJobs struct {
	listActive func(ctx context.Context) ([]*models.Job, error)
	getActive  func(ctx context.Context, id string) (*models.Job, error)
	list       func(ctx context.Context) ([]*models.Job, error)
	create     func(ctx context.Context, title, description string) (*models.Job, error)
	delete     func(ctx context.Context, id string) error
	setActive  func(ctx context.Context, id string, active bool) (*models.Job, error)
}

func (s *stubJobs) ListActive(ctx context.Context) ([]*models.Job, error) { return s.listActive(ctx) }
func (s *stubJobs) GetActive(ctx context.Context, id string) (*models.Job, error) {
	return s.getActive(ctx, id)
}
func (s *stubJobs) List(ctx context.Context) ([]*models.Job, error) { return s.list(ctx) }
func (s *stubJobs) Create(ctx context.Context, title, description string) (*models.Job, error) {
	return s.create(ctx, title, description)
}
func (s *stubJobs) Delete(ctx context.Context, id string) error { return s.delete(ctx, id) }
func (s *stubJobs) SetActive(ctx context.Context, id string, active bool) (*models.Job, error) {
	return s.setActive(ctx, id, active)
}

type stubApps struct {
	apply        func(ctx context.Context, userID, jobID, resumeURL string, coverLetter *string) (*models.Application, error)
	listMine     func(ctx context.Context, userID string) ([]*models.Application, error)
	getMine      func(ctx context.Context, userID, id string) (*models.Application, error)
	historyMine  func(ctx context.Context, userID, id string) ([]*models.ApplicationStatusHistory, error)
	listAll      func(ctx context.Context) ([]*models.Application, error)
	get          func(ctx context.Context, id string) (*models.Application, error)
	history      func(ctx context.Context, id string) ([]*models.ApplicationStatusHistory, error)
	changeStatus func(ctx context.Context, id string, status models.ApplicationStatus, adminID string) (*models.Application, error)
}

func (s *stubApps) Apply(ctx context.Context, userID, jobID, resumeURL string, coverLetter *string) (*models.Application, error) {
	return s.apply(ctx, userID, jobID, resumeURL, coverLetter)
}
func (s *stubApps) ListMine(ctx context.Context, userID string) ([]*models.Application, error) {
	return s.listMine(ctx, userID)
}
func (s *stubApps) GetMine(ctx context.Context, userID, id string) (*models.Application, error) {
	return s.getMine(ctx, userID, id)
}
func (s *stubApps) HistoryMine(ctx context.Context, userID, id string) ([]*models.ApplicationStatusHistory, error) {
	return s.historyMine(ctx, userID, id)
}
func (s *stubApps) ListAll(ctx context.Context) ([]*models.Application, error) {
	return s.listAll(ctx)
}
func (s *stubApps) Get(ctx context.Context, id string) (*models.Application, error) {
	return s.get(ctx, id)
}
func (s *stubApps) History(ctx context.Context, id string) ([]*models.ApplicationStatusHistory, error) {
	return s.history(ctx, id)
}
func (s *stubApps) ChangeStatus(ctx context.Context, id string, status models.ApplicationStatus, adminID string) (*models.Application, error) {
	return s.changeStatus(ctx, id, status, adminID)
}

type stubResumes struct {
	presignUpload   func(ctx context.Context, userID string) (string, string, error)
	presignDownload func(ctx context.Context, resume string) (string, error)
}

func (s *stubResumes) PresignUpload(ctx context.Context, userID string) (string, string, error) {
	return s.presignUpload(ctx, userID)
}
func (s *stubResumes) PresignDownload(ctx context.Context, resume string) (string, error) {
	return s.presignDownload(ctx, resume)
}

type testEnv struct {
	router  chi.Router
	issuer  *auth.TokenIssuer
	metrics *Metrics
	reg     *prometheus.Registry

	users   *stubUsers
	jobs    *stubJobs
	apps    *stubApps
	resumes *stubResumes
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(testSecret, 15*time.Minute)
	require.NoError(t, err)
	verifier, err := auth.NewTokenVerifier(testSecret)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	env := &testEnv{
		issuer:  issuer,
		reg:     reg,
		metrics: NewMetrics(reg),
		users:   &stubUsers{},
		jobs:    &stubJobs{},
		apps:    &stubApps{},
		resumes: &stubResumes{},
	}

	env.router = NewRouter(RouterOptions{
		Users:          env.users,
		Jobs:           env.jobs,
		Applications:   env.apps,
		Resumes:        env.resumes,
		Guard:          auth.NewAccessGuard(verifier),
		Enforcer:       auth.NewRoleEnforcer(),
		TokenLifetime:  issuer.Lifetime(),
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        env.metrics,
		Gatherer:       reg,
	})
	return env
}

func (e *testEnv) token(t *testing.T, p auth.Principal) string {
	t.Helper()
	tok, err := e.issuer.Issue(p)
	require.NoError(t, err)
	return tok
}

// do sends a request through the router. A non-empty token is sent as a
// bearer header.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

var (
	alice = auth.Principal{ID: "11111111-1111-1111-1111-111111111111", Email: "alice@example.com", Role: auth.RoleUser}
	admin = auth.Principal{ID: "22222222-2222-2222-2222-222222222222", Email: "admin@example.com", Role: auth.RoleAdmin}
)
