package jobs

import (
	"context"

	"github.com/dmitrijs2005/appli/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	GetByID(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Job, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Job, error)
	Delete(ctx context.Context, id string) error
}
