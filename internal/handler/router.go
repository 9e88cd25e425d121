// internal/handler/router.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/auth"
	"github.com/dangerclosesec/qualitrack/internal/middleware"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Indicators  *IndicatorHandler
	Documents   *DocumentHandler
	Actions     *ActionHandler
	Tasks       *TaskHandler
	Audits      *AuditHandler
	BPFs        *BPFHandler
	Statistics  *StatisticsHandler
	Invitations *InvitationHandler
	Sessions    *SessionHandler
	Bootstrap   *BootstrapHandler
}

type RouterOptions struct {
	Logger         *slog.Logger
	Metrics        http.Handler
	Health         http.HandlerFunc
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the root handler: public health, metrics, login and
// invitation acceptance, and the bearer-protected /api/v1 surface.
func NewRouter(h Handlers, tokenManager *auth.TokenManager, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := opts.Health
	if health == nil {
		health = func(w http.ResponseWriter, r *http.Request) {
			respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		}
	}
	r.Get("/health", health)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			r.Post("/sessions", h.Sessions.LoginHandler)
			r.Route("/public/invitations", h.Invitations.PublicRoutes)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json", "multipart/form-data"))
			r.Use(middleware.AuthMiddleware(tokenManager))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Post("/bootstrap", h.Bootstrap.Initialize)
				r.Route("/invitations", h.Invitations.Routes)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.ReadOnlyRoles(model.RoleAuditor))
				r.Route("/indicators", h.Indicators.Routes)
				r.Route("/documents", h.Documents.Routes)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin, model.RoleMember))
				r.Route("/actions", h.Actions.Routes)
				r.Route("/tasks", h.Tasks.Routes)
				r.Route("/audits", h.Audits.Routes)
				r.Route("/bpfs", h.BPFs.Routes)
				r.Route("/statistics", h.Statistics.Routes)
			})
		})
	})

	return r
}
