package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// GooseDialect maps a gorm driver name to the goose dialect
func GooseDialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.log.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.log.Fatalf(format, v...) }

// Migrator runs the embedded goose migrations
type Migrator struct {
	db      *sql.DB
	dialect string
}

// NewMigrator prepares goose for db using the embedded migration files
func NewMigrator(db *sql.DB, driver string, logger *zap.Logger) (*Migrator, error) {
	dialect := GooseDialect(driver)
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: logger.Sugar()})
	if err := goose.SetDialect(dialect); err != nil {
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}
	return &Migrator{db: db, dialect: dialect}, nil
}

func (m *Migrator) Up() error {
	if err := goose.Up(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down() error {
	if err := goose.Down(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run down migration: %w", err)
	}
	return nil
}

func (m *Migrator) Status() error {
	if err := goose.Status(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (m *Migrator) Version() (int64, error) {
	v, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return v, nil
}

// MigrateUp applies all pending migrations on a gorm connection
func MigrateUp(db *gorm.DB, logger *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	m, err := NewMigrator(sqlDB, db.Dialector.Name(), logger)
	if err != nil {
		return err
	}
	return m.Up()
}
