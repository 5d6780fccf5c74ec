package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/dbx"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/dmitrijs2005/appli/internal/server/repositories/applications"
	"github.com/dmitrijs2005/appli/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/appli/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	err     error

	updatedHash string
	updateErr   error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedHash = hash
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
		}
	}
	return nil
}

type fakeJobsRepo struct {
	jobs map[string]*models.Job
	err  error
}

func newFakeJobsRepo(js ...*models.Job) *fakeJobsRepo {
	f := &fakeJobsRepo{jobs: map[string]*models.Job{}}
	for _, j := range js {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobsRepo) Create(_ context.Context, j *models.Job) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	j.ID = uuid.NewString()
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeJobsRepo) GetByID(_ context.Context, id string) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	j, ok := f.jobs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return j, nil
}

func (f *fakeJobsRepo) List(_ context.Context, activeOnly bool) ([]*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Job{}
	for _, j := range f.jobs {
		if !activeOnly || j.IsActive {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobsRepo) SetActive(_ context.Context, id string, active bool) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	j, ok := f.jobs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	j.IsActive = active
	return j, nil
}

func (f *fakeJobsRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.jobs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.jobs, id)
	return nil
}

type fakeAppsRepo struct {
	apps    map[string]*models.Application
	history []*models.ApplicationStatusHistory
	err     error

	updateErr  error
	historyErr error
}

func newFakeAppsRepo(as ...*models.Application) *fakeAppsRepo {
	f := &fakeAppsRepo{apps: map[string]*models.Application{}}
	for _, a := range as {
		f.apps[a.ID] = a
	}
	return f
}

func (f *fakeAppsRepo) Create(_ context.Context, a *models.Application) (*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	a.ID = uuid.NewString()
	a.Status = models.StatusSubmitted
	f.apps[a.ID] = a
	return a, nil
}

func (f *fakeAppsRepo) GetByID(_ context.Context, id string) (*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.apps[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppsRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Application, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeAppsRepo) GetForUser(ctx context.Context, id, userID string) (*models.Application, error) {
	a, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAppsRepo) ListByUser(_ context.Context, userID string) ([]*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Application{}
	for _, a := range f.apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppsRepo) List(_ context.Context) ([]*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Application{}
	for _, a := range f.apps {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppsRepo) UpdateStatus(_ context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	a, ok := f.apps[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a.Status = status
	cp := *a
	return &cp, nil
}

func (f *fakeAppsRepo) AddHistory(_ context.Context, h *models.ApplicationStatusHistory) (*models.ApplicationStatusHistory, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	h.ID = uuid.NewString()
	f.history = append(f.history, h)
	return h, nil
}

func (f *fakeAppsRepo) ListHistory(_ context.Context, applicationID string) ([]*models.ApplicationStatusHistory, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.ApplicationStatusHistory{}
	for _, h := range f.history {
		if h.ApplicationID == applicationID {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	j *fakeJobsRepo
	a *fakeAppsRepo

	txHandles []dbx.DBTX
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Jobs(dbx.DBTX) jobs.Repository               { return m.j }
func (m *fakeRepoManager) Applications(db dbx.DBTX) applications.Repository {
	m.txHandles = append(m.txHandles, db)
	return m.a
}
