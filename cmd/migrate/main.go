package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/database"
	"github.com/threatlens/dashboard-api/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate [up|down|status|version]")
	}

	driverName, dsn := "sqlite3", cfg.Database.Path
	if cfg.Database.Driver == database.DriverPostgres {
		driverName, dsn = "postgres", cfg.Database.ConnectionString()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := database.NewMigrator(db, cfg.Database.Driver, log)
	if err != nil {
		return err
	}

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
		fmt.Println("Migration rolled back successfully")
	case "status":
		return m.Status()
	case "version":
		v, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("Current version: %d\n", v)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}

	return nil
}
