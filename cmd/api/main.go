package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/threatlens/dashboard-api/docs"
	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/cache"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/database"
	"github.com/threatlens/dashboard-api/internal/http/handler"
	"github.com/threatlens/dashboard-api/internal/http/middleware"
	"github.com/threatlens/dashboard-api/internal/http/router"
	"github.com/threatlens/dashboard-api/internal/jobs"
	"github.com/threatlens/dashboard-api/internal/logger"
	"github.com/threatlens/dashboard-api/internal/probe"
	"github.com/threatlens/dashboard-api/internal/repository"
	"github.com/threatlens/dashboard-api/internal/service"
	"github.com/threatlens/dashboard-api/internal/storage"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// @title ThreatLens Dashboard API
// @version 1.0
// @description Backend for the threat intelligence dashboard: article feeds, per-user state, sources, keywords and statistics

// @contact.name API Support
// @contact.email support@threatlens.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session
// @description Upstream session cookie

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In staging/production secrets may come from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.MigrateUp(db, log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database ready", zap.String("driver", db.Dialector.Name()))

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	sessionCache, err := cache.New(&cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	if closer, ok := sessionCache.(*cache.Redis); ok {
		defer func() { _ = closer.Close() }()
	}

	client, err := threatapi.NewClient(&cfg.Upstream, log)
	if err != nil {
		return fmt.Errorf("failed to create threat API client: %w", err)
	}
	prober := probe.NewProber(&cfg.Probe, log)

	// Repositories
	stateRepo := repository.NewArticleStateRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	exportRepo := repository.NewExportRepository(db)

	// Authentication
	var jwtValidator *auth.JWTValidator
	if cfg.Auth.JWTSecret != "" {
		jwtValidator = auth.NewJWTValidator(cfg.Auth.JWTSecret)
		log.Info("Local session verification enabled")
	}
	sessions := auth.NewSessionResolver(cfg.Auth.CookieName, jwtValidator, client, sessionCache, cfg.Auth.CacheTTLDuration(), log)
	authMiddleware := auth.NewMiddleware(sessions, cfg.Auth.APIKey, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Services
	preferenceService := service.NewPreferenceService(preferenceRepo, log)
	articleService := service.NewArticleService(client, stateRepo, exportRepo, fileStorage, log)
	authService := service.NewAuthService(client, sessions, log)
	keywordService := service.NewKeywordService(client, log)
	sourceService := service.NewSourceService(client, prober, log)
	promptService := service.NewPromptService(client, log)
	statisticsService := service.NewStatisticsService(client, log)
	adminService := service.NewAdminService(client, log)

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(authService, cfg.Auth.CookieName, log),
		Article:    handler.NewArticleHandler(articleService, preferenceService, log),
		Keyword:    handler.NewKeywordHandler(keywordService, log),
		Source:     handler.NewSourceHandler(sourceService, log),
		Prompt:     handler.NewPromptHandler(promptService, log),
		Statistics: handler.NewStatisticsHandler(statisticsService, log),
		Admin:      handler.NewAdminHandler(adminService, log),
		Preference: handler.NewPreferenceHandler(preferenceService, log),
	}

	// Background jobs
	var scheduler *jobs.Scheduler
	var sourceHealth router.SourceHealthReporter
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		pruneJob := jobs.NewStatePruneJob(stateRepo, cfg.Jobs.ViewedRetention(), cfg.Jobs.TimeoutDuration(), log)
		if err := scheduler.AddJob(jobs.StatePruneJobName, cfg.Jobs.StatePruneCron, pruneJob.Run); err != nil {
			log.Error("Failed to register state prune job", zap.Error(err))
		}

		if cfg.Upstream.ServiceAPIKey != "" {
			healthJob := jobs.NewSourceHealthJob(client, cfg.Jobs.TimeoutDuration(), log)
			if err := scheduler.AddJob(jobs.SourceHealthJobName, cfg.Jobs.SourceHealthCron, healthJob.Run); err != nil {
				log.Error("Failed to register source health job", zap.Error(err))
			} else {
				sourceHealth = healthJob
				go healthJob.Run()
			}
		} else {
			log.Info("Source health job disabled, no service API key configured")
		}

		scheduler.Start()
		for _, name := range scheduler.JobNames() {
			next, _ := scheduler.NextRun(name)
			log.Info("Job scheduled", zap.String("job", name), zap.Time("next_run", next))
		}
	} else {
		log.Info("Background jobs disabled")
	}

	rt := router.NewRouter(cfg, log, db, client, sourceHealth, authMiddleware, rateLimiter, handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
