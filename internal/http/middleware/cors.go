package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/threatlens/dashboard-api/internal/config"
	"go.uber.org/zap"
)

// CORS configures cross-origin access for the dashboard SPA. The session
// travels as a cookie, so a "*" origin is echoed per request rather than
// sent literally (browsers reject "*" together with credentials).
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	echoAny := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		if !isLocal(environment) {
			logger.Warn("CORS allows any origin outside development", zap.String("environment", environment))
		}
		options.AllowOriginFunc = echoAny
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS origins configured", zap.Strings("origins", cfg.AllowedOrigins))
	case isLocal(environment):
		options.AllowOriginFunc = echoAny
		logger.Info("CORS allows any origin in development")
	default:
		// go-chi/cors treats an empty origin list as "*"
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("No CORS origins configured, cross-origin requests are denied", zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func isLocal(environment string) bool {
	switch environment {
	case "", "development", "local":
		return true
	}
	return false
}
