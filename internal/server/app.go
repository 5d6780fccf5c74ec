// Package server wires the Appli server together: configuration, database,
// services, the HTTP API and the gRPC endpoint. It handles graceful
// shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/appli/internal/dbx"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/dmitrijs2005/appli/internal/server/config"
	"github.com/dmitrijs2005/appli/internal/server/httpapi"
	"github.com/dmitrijs2005/appli/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/appli/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"

	gs "github.com/dmitrijs2005/appli/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

var (
	openDB               = dbx.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	handler    http.Handler
	grpcServer *gs.GRPCServer
}

// ParseLogLevel maps the configured level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

// NewApp connects to the database, applies migrations and builds every
// service. The returned App owns the database handle.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	lvl, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger := logging.NewJSONLogger(os.Stdout, "appli", lvl)

	db, err := openDB(ctx, "pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, oops.Code("MIGRATIONS_FAILED").Wrap(err)
	}

	secret := []byte(c.SecretKey)
	issuer, err := auth.NewTokenIssuer(secret, c.AccessTokenLifetime)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewTokenVerifier(secret)
	if err != nil {
		return nil, err
	}
	guard := auth.NewAccessGuard(verifier)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if !c.S3Enabled() {
		logger.Warn(ctx, "S3 bucket not configured, resume uploads are disabled")
	}

	enforcer := auth.NewRoleEnforcer()
	us := services.NewUserService(db, rm, auth.NewPasswordVault(), issuer, logger.With("module", "users"))
	as := services.NewApplicationService(db, rm, logger.With("module", "applications"))

	handler := httpapi.NewRouter(httpapi.RouterOptions{
		Users:          us,
		Jobs:           services.NewJobService(db, rm, logger.With("module", "jobs")),
		Applications:   as,
		Resumes:        services.NewResumeService(c),
		Guard:          guard,
		Enforcer:       enforcer,
		TokenLifetime:  issuer.Lifetime(),
		CookieSecure:   c.CookieSecure,
		AllowedOrigins: c.AllowedOrigins,
		Logger:         logger.With("module", "http"),
		Metrics:        httpapi.NewMetrics(reg),
		Gatherer:       reg,
		Health:         db.PingContext,
	})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		handler:    handler,
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, guard, enforcer, us, as),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails. It closes the database before returning.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	httpLis, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		_ = app.db.Close()
		return fmt.Errorf("http listen: %w", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.startHTTPServer(ctx, httpLis); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			fail(err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server failed", "error", err)
			fail(err)
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")

	return firstErr
}
