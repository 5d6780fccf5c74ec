package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request and records request metrics.
func requestLogger(logger logging.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			elapsed := time.Since(start)

			metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Authenticate rejects requests without a valid access token and stores the
// caller's Principal in the request context.
func Authenticate(guard *auth.AccessGuard, logger logging.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := guard.Authenticate(r)
			if err != nil {
				metrics.AuthFailures.WithLabelValues("unauthenticated").Inc()
				writeError(r.Context(), w, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole lets a request through only when the authenticated Principal
// holds role. It must run after Authenticate.
func RequireRole(enforcer *auth.RoleEnforcer, role auth.Role, logger logging.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				metrics.AuthFailures.WithLabelValues("unauthenticated").Inc()
				writeError(r.Context(), w, logger, common.ErrUnauthenticated)
				return
			}
			if err := enforcer.Require(p, role); err != nil {
				if errors.Is(err, common.ErrForbidden) {
					metrics.AuthFailures.WithLabelValues("forbidden").Inc()
					logger.Warn(r.Context(), "access denied", "user_id", p.ID, "required_role", string(role))
				}
				writeError(r.Context(), w, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
