package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// HealthStatus is the database part of /health/db and /health/ready
type HealthStatus struct {
	Status          string        `json:"status"`
	Driver          string        `json:"driver"`
	Latency         time.Duration `json:"latency_ms"`
	Error           string        `json:"error,omitempty"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
}

// NewDatabase opens the state store. sqlite (a file path, or ":memory:") is
// the default; postgres is used when database.driver is "postgres".
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if db.Dialector.Name() == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return postgres.Open(cfg.ConnectionString()), nil
	case DriverSQLite, "":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(path + "?_foreign_keys=on&_busy_timeout=5000"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// AutoMigrate runs automatic migrations (for development only)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.ArticleState{},
		&domain.Preference{},
		&domain.Export{},
	)
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// HealthCheckWithStats pings the database and reports pool statistics
func HealthCheckWithStats(db *gorm.DB) *HealthStatus {
	status := &HealthStatus{Status: "healthy", Driver: db.Dialector.Name()}

	start := time.Now()
	err := HealthCheck(db)
	status.Latency = time.Since(start) / time.Millisecond
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}

	if sqlDB, err := db.DB(); err == nil {
		stats := sqlDB.Stats()
		status.OpenConnections = stats.OpenConnections
		status.InUse = stats.InUse
		status.Idle = stats.Idle
	}
	return status
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
