package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/database"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(db, zap.NewNop()))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestArticleStateRepository_Flags(t *testing.T) {
	repo := repository.NewArticleStateRepository(setupDB(t))
	ctx := context.Background()

	state, err := repo.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Nil(t, state.Read)
	assert.Nil(t, state.Saved)

	state, err = repo.SetRead(ctx, "u1", "a1", true)
	require.NoError(t, err)
	assert.True(t, state.IsRead())
	assert.Nil(t, state.Saved, "setting read must leave saved unset")

	state, err = repo.SetSaved(ctx, "u1", "a1", true)
	require.NoError(t, err)
	assert.True(t, state.IsRead(), "saving must not reset read")
	assert.True(t, state.IsSaved())

	_, err = repo.SetRead(ctx, "u1", "a2", false)
	require.NoError(t, err)
	_, err = repo.SetRead(ctx, "u2", "a3", true)
	require.NoError(t, err)

	read, err := repo.ReadMap(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a1": true, "a2": false}, read)

	saved, err := repo.SavedIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, saved)
}

func TestArticleStateRepository_ViewLeavesFlagsUnset(t *testing.T) {
	repo := repository.NewArticleStateRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.MarkViewed(ctx, "u1", "a1", time.Now()))

	state, err := repo.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.NotNil(t, state.ViewedAt)
	assert.Nil(t, state.Read)
	assert.Nil(t, state.Saved)

	read, err := repo.ReadMap(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, read)
	saved, err := repo.SavedMap(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestArticleStateRepository_MirrorError(t *testing.T) {
	repo := repository.NewArticleStateRepository(setupDB(t))
	ctx := context.Background()

	_, err := repo.SetRead(ctx, "u1", "a1", true)
	require.NoError(t, err)
	require.NoError(t, repo.SetMirrorError(ctx, "u1", "a1", "upstream 502"))

	state, err := repo.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.True(t, state.IsRead())
	assert.Equal(t, "upstream 502", state.MirrorError)

	require.NoError(t, repo.SetMirrorError(ctx, "u1", "a1", ""))
	state, err = repo.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Empty(t, state.MirrorError)
}

func TestArticleStateRepository_PruneViewed(t *testing.T) {
	repo := repository.NewArticleStateRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.MarkViewed(ctx, "u1", "old", now.Add(-100*24*time.Hour)))
	require.NoError(t, repo.MarkViewed(ctx, "u1", "old-saved", now.Add(-100*24*time.Hour)))
	_, err := repo.SetSaved(ctx, "u1", "old-saved", true)
	require.NoError(t, err)
	require.NoError(t, repo.MarkViewed(ctx, "u1", "recent", now.Add(-time.Hour)))
	require.NoError(t, repo.MarkViewed(ctx, "u1", "old-unread", now.Add(-100*24*time.Hour)))
	_, err = repo.SetRead(ctx, "u1", "old-unread", false)
	require.NoError(t, err)

	cleared, err := repo.PruneViewed(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)

	states, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	byID := map[string]domain.ArticleState{}
	for _, s := range states {
		byID[s.ArticleID] = s
	}
	assert.NotContains(t, byID, "old")
	require.Contains(t, byID, "old-saved")
	assert.Nil(t, byID["old-saved"].ViewedAt)
	require.Contains(t, byID, "old-unread", "an explicit unread flag is kept")
	require.Contains(t, byID, "recent")
	assert.NotNil(t, byID["recent"].ViewedAt)
}

func TestPreferenceRepository(t *testing.T) {
	repo := repository.NewPreferenceRepository(setupDB(t))
	ctx := context.Background()

	pref, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "newest", pref.DefaultSort)
	assert.False(t, pref.DarkMode)

	pref.DarkMode = true
	pref.DefaultSort = "title-asc"
	require.NoError(t, repo.Save(ctx, pref))

	pref.DarkMode = false
	require.NoError(t, repo.Save(ctx, pref))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.DarkMode)
	assert.Equal(t, "title-asc", got.DefaultSort)
}

func TestExportRepository(t *testing.T) {
	repo := repository.NewExportRepository(setupDB(t))
	ctx := context.Background()

	export := &domain.Export{
		ID:           uuid.New(),
		UserID:       "u1",
		StoragePath:  "exports/u1/x.json",
		ContentType:  "application/json",
		ArticleCount: 3,
		SizeBytes:    512,
	}
	require.NoError(t, repo.Create(ctx, export))

	got, err := repo.GetByID(ctx, export.ID)
	require.NoError(t, err)
	assert.Equal(t, "exports/u1/x.json", got.StoragePath)
	assert.Equal(t, 3, got.ArticleCount)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, export.ID))
	_, err = repo.GetByID(ctx, export.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
