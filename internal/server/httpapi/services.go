package httpapi

import (
	"context"

	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/dmitrijs2005/appli/internal/server/services"
)

// The handlers depend on these narrow views of the services package so they
// can be tested with stubs.

type userService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Me(ctx context.Context, p auth.Principal) (*models.User, error)
}

type jobService interface {
	ListActive(ctx context.Context) ([]*models.Job, error)
	GetActive(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
	Create(ctx context.Context, title, description string) (*models.Job, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) (*models.Job, error)
}

type applicationService interface {
	Apply(ctx context.Context, userID, jobID, resumeURL string, coverLetter *string) (*models.Application, error)
	ListMine(ctx context.Context, userID string) ([]*models.Application, error)
	GetMine(ctx context.Context, userID, id string) (*models.Application, error)
	HistoryMine(ctx context.Context, userID, id string) ([]*models.ApplicationStatusHistory, error)
	ListAll(ctx context.Context) ([]*models.Application, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	History(ctx context.Context, id string) ([]*models.ApplicationStatusHistory, error)
	ChangeStatus(ctx context.Context, id string, status models.ApplicationStatus, adminID string) (*models.Application, error)
}

type resumeService interface {
	PresignUpload(ctx context.Context, userID string) (string, string, error)
	PresignDownload(ctx context.Context, resume string) (string, error)
}
