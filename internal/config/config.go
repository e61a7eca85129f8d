package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/threatlens/dashboard-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Upstream  UpstreamConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Cache     CacheConfig
	Probe     ProbeConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// UpstreamConfig describes the threat intelligence REST API the dashboard reads from
type UpstreamConfig struct {
	// BaseURL is the API root, e.g. https://intel.example.com/api
	BaseURL string
	// Timeout is the per-request timeout (seconds)
	Timeout int
	// ServiceAPIKey authenticates background jobs against the upstream (x-api-key)
	ServiceAPIKey string
	// UserAgent is sent on every upstream request
	UserAgent string
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver          string
	Path            string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// AuthConfig controls how dashboard sessions are resolved
type AuthConfig struct {
	// CookieName is the upstream session cookie forwarded on every call
	CookieName string
	// JWTSecret enables local HS256 verification of the session cookie when set
	JWTSecret string
	// CacheTTL is how long a session resolved through /auth/me is cached (seconds)
	CacheTTL int
	// APIKey authenticates system callers (x-api-key)
	APIKey string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// AllowCredentials must stay true for the cookie based session to work
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	// RequestsPerMinuteAuth applies per user once the session is resolved
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// JobsConfig configures the background scheduler
type JobsConfig struct {
	Enabled bool
	// StatePruneCron runs the viewed-marker prune job
	StatePruneCron string
	// ViewedRetentionDays is how long viewed markers are kept
	ViewedRetentionDays int
	// SourceHealthCron polls upstream sources for fetch errors
	SourceHealthCron string
	// Timeout bounds a single job run (seconds)
	Timeout int
}

// CacheConfig selects the backend for resolved sessions
type CacheConfig struct {
	// Driver is "memory" or "redis"
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// ProbeConfig bounds source feed previews
type ProbeConfig struct {
	Timeout  int
	MaxItems int
	// AllowPrivateNetworks lets previews reach loopback, private and link-local addresses
	AllowPrivateNetworks bool
}

// TimeoutDuration returns the feed fetch timeout
func (p *ProbeConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// TimeoutDuration returns the upstream request timeout
func (u *UpstreamConfig) TimeoutDuration() time.Duration {
	return time.Duration(u.Timeout) * time.Second
}

// CacheTTLDuration returns how long a resolved session is cached
func (a *AuthConfig) CacheTTLDuration() time.Duration {
	return time.Duration(a.CacheTTL) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ViewedRetention returns the viewed-marker retention window
func (j *JobsConfig) ViewedRetention() time.Duration {
	return time.Duration(j.ViewedRetentionDays) * 24 * time.Hour
}

// TimeoutDuration returns the per-run job timeout
func (j *JobsConfig) TimeoutDuration() time.Duration {
	return time.Duration(j.Timeout) * time.Second
}

// Load loads configuration from file and environment variables.
// Secrets are not fetched from the vault here; use LoadWithSecrets for that.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = v.GetString("THREAT_API_URL")
	}
	if cfg.Upstream.ServiceAPIKey == "" {
		cfg.Upstream.ServiceAPIKey = v.GetString("THREAT_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("SESSION_JWT_SECRET")
	}
	if cfg.Auth.APIKey == "" {
		cfg.Auth.APIKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when USE_AZURE_KEY_VAULT=true and the environment is
// staging or production. Otherwise secrets come from environment variables.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	if err := ApplySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	return cfg, nil
}

// SecretSource is the subset of the secrets provider used to fill in config
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// ApplySecrets overwrites secret-bearing fields with values from src.
// Missing secrets leave the existing value untouched.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	if src == nil {
		return fmt.Errorf("secret source is nil")
	}

	if key, err := src.GetSecretOrEnv(ctx, "threat-api-key", "THREAT_API_KEY"); err == nil && key != "" {
		cfg.Upstream.ServiceAPIKey = key
	}
	if secret, err := src.GetSecretOrEnv(ctx, "session-jwt-secret", "SESSION_JWT_SECRET"); err == nil && secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if apiKey, err := src.GetSecretOrEnv(ctx, "admin-api-key", "ADMIN_API_KEY"); err == nil && apiKey != "" {
		cfg.Auth.APIKey = apiKey
	}
	if password, err := src.GetSecretOrEnv(ctx, "dashboard-db-password", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if redisPassword, err := src.GetSecretOrEnv(ctx, "redis-password", "CACHE_REDISPASSWORD"); err == nil && redisPassword != "" {
		cfg.Cache.RedisPassword = redisPassword
	}
	if connStr, err := src.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Threat Dashboard API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("upstream.baseURL", "http://localhost:5000/api")
	v.SetDefault("upstream.timeout", 15)
	v.SetDefault("upstream.userAgent", "threat-dashboard-api/1.0")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/dashboard.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "dashboard")
	v.SetDefault("database.user", "dashboard_user")
	v.SetDefault("database.password", "dashboard_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", 300)

	v.SetDefault("auth.cookieName", "session")
	v.SetDefault("auth.cacheTTL", 60)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./exports")
	v.SetDefault("storage.cloudContainer", "dashboard-exports")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 600)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.statePruneCron", "0 30 3 * * *")
	v.SetDefault("jobs.viewedRetentionDays", 90)
	v.SetDefault("jobs.sourceHealthCron", "0 */10 * * * *")
	v.SetDefault("jobs.timeout", 120)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redisAddr", "localhost:6379")
	v.SetDefault("cache.redisDB", 0)
	v.SetDefault("cache.keyPrefix", "dashboard:session:")

	v.SetDefault("probe.timeout", 10)
	v.SetDefault("probe.maxItems", 10)
	v.SetDefault("probe.allowPrivateNetworks", false)
}
