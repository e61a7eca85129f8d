package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/database"
	"github.com/threatlens/dashboard-api/internal/domain"
	"go.uber.org/zap"
)

func TestNewDatabase_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	assert.FileExists(t, path)
	assert.NoError(t, database.HealthCheck(db))
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := database.NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrateUp(t *testing.T) {
	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.MigrateUp(db, zap.NewNop()))

	assert.True(t, db.Migrator().HasTable(&domain.ArticleState{}))
	assert.True(t, db.Migrator().HasTable(&domain.Preference{}))
	assert.True(t, db.Migrator().HasTable(&domain.Export{}))

	// idempotent
	require.NoError(t, database.MigrateUp(db, zap.NewNop()))
}

func TestHealthCheckWithStats(t *testing.T) {
	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	status := database.HealthCheckWithStats(db)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "sqlite", status.Driver)

	require.NoError(t, database.Close(db))
	status = database.HealthCheckWithStats(db)
	assert.Equal(t, "unhealthy", status.Status)
	assert.NotEmpty(t, status.Error)
}

func TestGooseDialect(t *testing.T) {
	assert.Equal(t, "postgres", database.GooseDialect("postgres"))
	assert.Equal(t, "sqlite3", database.GooseDialect("sqlite"))
}
