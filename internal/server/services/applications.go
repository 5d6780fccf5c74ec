package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/dbx"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"github.com/dmitrijs2005/appli/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

// ApplicationService handles job applications: submitting and reading them
// as an applicant, and reviewing them as an admin.
type ApplicationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewApplicationService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ApplicationService {
	return &ApplicationService{db: db, repomanager: m, logger: logger}
}

// Apply submits an application of userID to an active job. resumeURL must be
// an absolute http(s) URL or a key from ResumeService.PresignUpload.
func (s *ApplicationService) Apply(ctx context.Context, userID, jobID, resumeURL string, coverLetter *string) (*models.Application, error) {
	if !isUUID(jobID) {
		return nil, common.ErrorNotFound
	}

	resumeURL = strings.TrimSpace(resumeURL)
	if resumeURL == "" {
		return nil, invalid("resume_url is required")
	}
	if !validResumeURL(resumeURL, userID) {
		return nil, invalid("resume_url must be an http(s) URL or an uploaded resume key")
	}

	if coverLetter != nil {
		trimmed := strings.TrimSpace(*coverLetter)
		if trimmed == "" {
			coverLetter = nil
		} else {
			coverLetter = &trimmed
		}
	}

	job, err := s.repomanager.Jobs(s.db).GetByID(ctx, jobID)
	if err != nil {
		return nil, wrapRepoErr(err, "JOB_GET_FAILED", "job_id", jobID)
	}
	if !job.IsActive {
		return nil, common.ErrorNotFound
	}

	app, err := s.repomanager.Applications(s.db).Create(ctx, &models.Application{
		UserID:      userID,
		JobID:       jobID,
		ResumeURL:   resumeURL,
		CoverLetter: coverLetter,
	})
	if err != nil {
		return nil, wrapRepoErr(err, "APPLICATION_CREATE_FAILED", "job_id", jobID)
	}

	s.logger.Info(ctx, "application submitted", "application_id", app.ID, "job_id", jobID, "user_id", userID)
	return app, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, userID string) ([]*models.Application, error) {
	apps, err := s.repomanager.Applications(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, oops.Code("APPLICATION_LIST_FAILED").With("user_id", userID).Wrap(err)
	}
	return apps, nil
}

// GetMine returns the caller's own application. Applications of other users
// are reported as not found.
func (s *ApplicationService) GetMine(ctx context.Context, userID, id string) (*models.Application, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	app, err := s.repomanager.Applications(s.db).GetForUser(ctx, id, userID)
	if err != nil {
		return nil, wrapRepoErr(err, "APPLICATION_GET_FAILED", "application_id", id)
	}
	return app, nil
}

func (s *ApplicationService) HistoryMine(ctx context.Context, userID, id string) ([]*models.ApplicationStatusHistory, error) {
	if _, err := s.GetMine(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.history(ctx, id)
}

func (s *ApplicationService) ListAll(ctx context.Context) ([]*models.Application, error) {
	apps, err := s.repomanager.Applications(s.db).List(ctx)
	if err != nil {
		return nil, oops.Code("APPLICATION_LIST_FAILED").Wrap(err)
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err, "APPLICATION_GET_FAILED", "application_id", id)
	}
	return app, nil
}

func (s *ApplicationService) History(ctx context.Context, id string) ([]*models.ApplicationStatusHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history(ctx, id)
}

func (s *ApplicationService) history(ctx context.Context, id string) ([]*models.ApplicationStatusHistory, error) {
	h, err := s.repomanager.Applications(s.db).ListHistory(ctx, id)
	if err != nil {
		return nil, oops.Code("APPLICATION_HISTORY_FAILED").With("application_id", id).Wrap(err)
	}
	return h, nil
}

// ChangeStatus moves an application to status on behalf of adminID. The
// update and its history row are written in one transaction. Setting the
// current status again is a no-op and records nothing.
func (s *ApplicationService) ChangeStatus(ctx context.Context, id string, status models.ApplicationStatus, adminID string) (*models.Application, error) {
	status = models.ApplicationStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, common.ErrInvalidStatus
	}
	if !isUUID(id) {
		return nil, common.ErrorNotFound
	}

	var updated *models.Application
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Applications(tx)

		current, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			updated = current
			return nil
		}

		updated, err = repo.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}

		_, err = repo.AddHistory(ctx, &models.ApplicationStatusHistory{
			ApplicationID: id,
			OldStatus:     current.Status,
			NewStatus:     status,
			ChangedBy:     adminID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, oops.Code("APPLICATION_STATUS_FAILED").
			With("application_id", id).
			With("status", string(status)).
			Wrap(err)
	}

	s.logger.Info(ctx, "application status changed", "application_id", id, "status", string(status), "admin_id", adminID)
	return updated, nil
}
