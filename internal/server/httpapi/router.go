// Package httpapi exposes the portal over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions holds everything NewRouter needs. Logger, Metrics and
// Gatherer may be nil.
type RouterOptions struct {
	Users        userService
	Jobs         jobService
	Applications applicationService
	Resumes      resumeService

	Guard    *auth.AccessGuard
	Enforcer *auth.RoleEnforcer

	TokenLifetime  time.Duration
	CookieSecure   bool
	AllowedOrigins []string

	Logger   logging.Logger
	Metrics  *Metrics
	Gatherer prometheus.Gatherer

	// Health reports whether the service can take traffic.
	Health func(ctx context.Context) error
}

type handlers struct {
	users        userService
	jobs         jobService
	applications applicationService
	resumes      resumeService

	tokenLifetime time.Duration
	cookieSecure  bool

	logger  logging.Logger
	metrics *Metrics
}

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the chi router with the shared middleware and every
// API route mounted under common.APIPrefix.
func NewRouter(opts RouterOptions) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	h := &handlers{
		users:         opts.Users,
		jobs:          opts.Jobs,
		applications:  opts.Applications,
		resumes:       opts.Resumes,
		tokenLifetime: opts.TokenLifetime,
		cookieSecure:  opts.CookieSecure,
		logger:        logger,
		metrics:       metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger, metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))

	r.Get("/healthz", healthHandler(opts.Health))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	authn := Authenticate(opts.Guard, logger, metrics)
	admin := RequireRole(opts.Enforcer, auth.RoleAdmin, logger, metrics)

	r.Route(common.APIPrefix, func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)

		r.Get("/jobs", h.listJobs)
		r.Get("/jobs/{id}", h.getJob)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/auth/me", h.me)
			r.Post("/jobs/apply/{id}", h.apply)

			r.Post("/me/resumes/upload-url", h.resumeUploadURL)
			r.Get("/me/applications", h.listMyApplications)
			r.Get("/me/applications/{id}", h.getMyApplication)
			r.Get("/me/applications/{id}/history", h.myApplicationHistory)

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin)

				r.Get("/jobs", h.adminListJobs)
				r.Post("/jobs", h.adminCreateJob)
				r.Delete("/jobs/{id}", h.adminDeleteJob)
				r.Patch("/jobs/{id}/status", h.adminSetJobStatus)

				r.Get("/applications", h.adminListApplications)
				r.Get("/applications/{id}", h.adminGetApplication)
				r.Get("/applications/{id}/history", h.adminApplicationHistory)
				r.Patch("/applications/{id}/status", h.adminChangeStatus)
				r.Get("/applications/{id}/resume-url", h.adminResumeURL)
			})
		})
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
