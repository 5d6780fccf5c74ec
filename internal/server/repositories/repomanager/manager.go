package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/appli/internal/dbx"
	"github.com/dmitrijs2005/appli/internal/server/repositories/applications"
	"github.com/dmitrijs2005/appli/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/appli/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Jobs(db dbx.DBTX) jobs.Repository
	Applications(db dbx.DBTX) applications.Repository
}
