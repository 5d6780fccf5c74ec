// Package admincli implements appli-admin, the operator tool for applying
// database migrations and creating admin accounts. Admin accounts can only
// be created here; the public API always registers regular users.
package admincli

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/appli/internal/dbx"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Runtime is what the commands need from the outside world. Tests replace
// the database, terminal and output.
type Runtime struct {
	Open         func(ctx context.Context, dsn string) (*sql.DB, error)
	Manager      func() repomanager.RepositoryManager
	In           io.Reader
	Out          io.Writer
	IsTerminal   func() bool
	ReadPassword func() ([]byte, error)
	Logger       logging.Logger
}

// DefaultRuntime talks to PostgreSQL through pgx and reads passwords from
// the controlling terminal.
func DefaultRuntime() *Runtime {
	return &Runtime{
		Open: func(ctx context.Context, dsn string) (*sql.DB, error) {
			return dbx.Open(ctx, "pgx", dsn)
		},
		Manager:      repomanager.NewPostgresRepositoryManager,
		In:           os.Stdin,
		Out:          os.Stdout,
		IsTerminal:   func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		ReadPassword: func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) },
		Logger:       logging.Nop{},
	}
}

// NewRootCmd builds the appli-admin command tree.
func NewRootCmd(rt *Runtime) *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "appli-admin",
		Short:         "Appli administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(rt.Out)
	root.SetIn(rt.In)
	root.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN (defaults to $DATABASE_URL)")

	root.AddCommand(newMigrateCmd(rt, &dsn))
	root.AddCommand(newCreateAdminCmd(rt, &dsn))

	return root
}

// openDB connects and applies pending migrations so every command sees the
// current schema.
func openDB(ctx context.Context, rt *Runtime, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := rt.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	rm := rt.Manager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, rm, nil
}
