package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/dbx"
	"github.com/dmitrijs2005/appli/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const appColumns = `id, user_id, job_id, resume_url, cover_letter, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (*models.Application, error) {
	a := &models.Application{}
	var cover sql.NullString
	if err := s.Scan(&a.ID, &a.UserID, &a.JobID, &a.ResumeURL, &cover, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if cover.Valid {
		a.CoverLetter = &cover.String
	}
	return a, nil
}

// Create inserts app with status submitted. A user or job that does not
// exist yields common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query :=
		`INSERT INTO applications (user_id, job_id, resume_url, cover_letter)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, status, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, app.UserID, app.JobID, app.ResumeURL, app.CoverLetter).
		Scan(&app.ID, &app.Status, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	return r.getOne(ctx, `SELECT `+appColumns+` FROM applications WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Application, error) {
	return r.getOne(ctx, `SELECT `+appColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetForUser(ctx context.Context, id, userID string) (*models.Application, error) {
	return r.getOne(ctx, `SELECT `+appColumns+` FROM applications WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Application, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM applications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Application, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM applications ORDER BY created_at DESC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	query :=
		`UPDATE applications SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + appColumns

	return r.getOne(ctx, query, id, status)
}

func (r *PostgresRepository) AddHistory(ctx context.Context, h *models.ApplicationStatusHistory) (*models.ApplicationStatusHistory, error) {
	query :=
		`INSERT INTO application_status_history (application_id, old_status, new_status, changed_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, changed_at
		 `

	err := r.db.QueryRowContext(ctx, query, h.ApplicationID, h.OldStatus, h.NewStatus, h.ChangedBy).
		Scan(&h.ID, &h.ChangedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return h, nil
}

// ListHistory returns the transitions of an application, oldest first.
func (r *PostgresRepository) ListHistory(ctx context.Context, applicationID string) ([]*models.ApplicationStatusHistory, error) {
	query :=
		`SELECT id, application_id, old_status, new_status, changed_by, changed_at
		 FROM application_status_history
		 WHERE application_id = $1
		 ORDER BY changed_at ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.ApplicationStatusHistory{}
	for rows.Next() {
		h := &models.ApplicationStatusHistory{}
		if err := rows.Scan(&h.ID, &h.ApplicationID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
