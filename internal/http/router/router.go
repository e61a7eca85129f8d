package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/database"
	"github.com/threatlens/dashboard-api/internal/http/handler"
	"github.com/threatlens/dashboard-api/internal/http/middleware"
	"github.com/threatlens/dashboard-api/internal/jobs"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/threatlens/dashboard-api/docs" // registers the swagger spec
)

// UpstreamChecker probes the threat API
type UpstreamChecker interface {
	HealthCheck(ctx context.Context) *threatapi.HealthStatus
}

// SourceHealthReporter exposes the last source poll
type SourceHealthReporter interface {
	Snapshot() (jobs.SourceHealthSnapshot, bool)
}

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth       *handler.AuthHandler
	Article    *handler.ArticleHandler
	Keyword    *handler.KeywordHandler
	Source     *handler.SourceHandler
	Prompt     *handler.PromptHandler
	Statistics *handler.StatisticsHandler
	Admin      *handler.AdminHandler
	Preference *handler.PreferenceHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	upstream       UpstreamChecker
	sourceHealth   SourceHealthReporter
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

// NewRouter wires the HTTP surface. sourceHealth may be nil when the
// source poll is disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	upstream UpstreamChecker,
	sourceHealth SourceHealthReporter,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		upstream:       upstream,
		sourceHealth:   sourceHealth,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.healthDB)
	r.Get("/health/ready", rt.healthReady)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}

		// Public
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(middleware.TrackUser)
			r.Use(rt.rateLimiter.Limit)

			r.Get("/auth/me", h.Auth.Me)

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", h.Article.List)
				r.Get("/saved", h.Article.ListSaved)
				r.Post("/export", h.Article.Export)
				r.Get("/{id}", h.Article.GetByID)
				r.With(rt.authMiddleware.RequireAdmin).Delete("/{id}", h.Article.Delete)
				r.Patch("/{id}/read", h.Article.SetRead)
				r.Patch("/{id}/saved", h.Article.SetSaved)
				r.Patch("/{id}/spam", h.Article.SetSpam)
			})
			r.Get("/alerts", h.Article.ListAlerts)
			r.Get("/exports", h.Article.ListExports)
			r.Get("/exports/{id}", h.Article.DownloadExport)
			r.Delete("/exports/{id}", h.Article.DeleteExport)

			r.Route("/keywords", func(r chi.Router) {
				r.Get("/", h.Keyword.List)
				r.Post("/", h.Keyword.Create)
				r.Put("/{id}", h.Keyword.Update)
				r.Delete("/{id}", h.Keyword.Delete)
				r.Patch("/{id}/active", h.Keyword.SetActive)
			})

			r.Route("/sources", func(r chi.Router) {
				r.Get("/", h.Source.List)
				r.Post("/", h.Source.Create)
				r.Post("/preview", h.Source.Preview)
				r.Put("/{id}", h.Source.Update)
				r.Delete("/{id}", h.Source.Delete)
				r.Patch("/{id}/active", h.Source.SetActive)
			})

			r.Get("/statistics/{kind}", h.Statistics.Get)

			r.Route("/me", func(r chi.Router) {
				r.Get("/state", h.Article.State)
				r.Get("/preferences", h.Preference.Get)
				r.Put("/preferences", h.Preference.Update)
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)

				r.Route("/prompts", func(r chi.Router) {
					r.Get("/", h.Prompt.List)
					r.Post("/", h.Prompt.Create)
					r.Put("/{id}", h.Prompt.Update)
					r.Delete("/{id}", h.Prompt.Delete)
				})

				r.Route("/admin/users", func(r chi.Router) {
					r.Get("/", h.Admin.ListUsers)
					r.Post("/", h.Admin.CreateUser)
					r.Patch("/{id}", h.Admin.UpdateUser)
					r.Delete("/{id}", h.Admin.DeleteUser)
				})
			})
		})
	})

	return r
}

func (rt *Router) healthDB(w http.ResponseWriter, r *http.Request) {
	status := database.HealthCheckWithStats(rt.db)
	code := http.StatusOK
	if status.Status != "healthy" {
		rt.logger.Error("database health check failed", zap.String("error", status.Error))
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status":   status.Status,
		"service":  "database",
		"database": status,
	})
}

// healthReady checks the state store and the upstream. The source poll is
// reported but does not fail readiness.
func (rt *Router) healthReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	upstream := rt.upstream.HealthCheck(ctx)
	if upstream.Status != "healthy" {
		rt.logger.Warn("upstream health check failed", zap.String("error", upstream.Error))
		allHealthy = false
	}
	checks["upstream"] = upstream

	if rt.sourceHealth != nil {
		if snap, ok := rt.sourceHealth.Snapshot(); ok {
			checks["sources"] = snap
		} else {
			checks["sources"] = map[string]interface{}{"status": "pending"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
