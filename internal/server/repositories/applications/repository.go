package applications

import (
	"context"

	"github.com/dmitrijs2005/appli/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Application, error)
	GetForUser(ctx context.Context, id, userID string) (*models.Application, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error)

	AddHistory(ctx context.Context, h *models.ApplicationStatusHistory) (*models.ApplicationStatusHistory, error)
	ListHistory(ctx context.Context, applicationID string) ([]*models.ApplicationStatusHistory, error)
}
