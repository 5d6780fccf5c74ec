package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/dmitrijs2005/appli/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

// JobService manages job postings. Applicants only ever see active jobs.
type JobService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewJobService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *JobService {
	return &JobService{db: db, repomanager: m, logger: logger}
}

func (s *JobService) ListActive(ctx context.Context) ([]*models.Job, error) {
	jobs, err := s.repomanager.Jobs(s.db).List(ctx, true)
	if err != nil {
		return nil, oops.Code("JOB_LIST_FAILED").Wrap(err)
	}
	return jobs, nil
}

// GetActive returns an active job. Inactive jobs are reported as not found.
func (s *JobService) GetActive(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsActive {
		return nil, common.ErrorNotFound
	}
	return job, nil
}

func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	job, err := s.repomanager.Jobs(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err, "JOB_GET_FAILED", "job_id", id)
	}
	return job, nil
}

func (s *JobService) List(ctx context.Context) ([]*models.Job, error) {
	jobs, err := s.repomanager.Jobs(s.db).List(ctx, false)
	if err != nil {
		return nil, oops.Code("JOB_LIST_FAILED").Wrap(err)
	}
	return jobs, nil
}

// Create publishes a new, active job.
func (s *JobService) Create(ctx context.Context, title, description string) (*models.Job, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, invalid("title is required")
	}
	if description == "" {
		return nil, invalid("description is required")
	}

	job, err := s.repomanager.Jobs(s.db).Create(ctx, &models.Job{Title: title, Description: description, IsActive: true})
	if err != nil {
		return nil, oops.Code("JOB_CREATE_FAILED").Wrap(err)
	}

	s.logger.Info(ctx, "job created", "job_id", job.ID)
	return job, nil
}

// Delete removes a job together with its applications.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Jobs(s.db).Delete(ctx, id); err != nil {
		return wrapRepoErr(err, "JOB_DELETE_FAILED", "job_id", id)
	}
	s.logger.Info(ctx, "job deleted", "job_id", id)
	return nil
}

func (s *JobService) SetActive(ctx context.Context, id string, active bool) (*models.Job, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	job, err := s.repomanager.Jobs(s.db).SetActive(ctx, id, active)
	if err != nil {
		return nil, wrapRepoErr(err, "JOB_UPDATE_FAILED", "job_id", id)
	}
	return job, nil
}

// wrapRepoErr passes common.ErrorNotFound and common.ErrorAlreadyExists
// through and tags anything else with code and one key/value of context.
func wrapRepoErr(err error, code string, key string, value any) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAlreadyExists) {
		return err
	}
	return oops.Code(code).With(key, value).Wrap(err)
}
