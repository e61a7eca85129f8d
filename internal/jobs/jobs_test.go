package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/jobs"
	"go.uber.org/zap"
)

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 */10 * * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Error(t, s.AddJob("a", "@every 1h", func() {}), "duplicate names are rejected")
	assert.Error(t, s.AddJob("c", "not a cron", func() {}))

	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	next, ok := s.NextRun("a")
	assert.True(t, ok)
	assert.True(t, next.IsZero(), "no next run before Start")
	_, ok = s.NextRun("missing")
	assert.False(t, ok)

	s.Start()
	<-s.Stop().Done()
}

type fakePruner struct {
	before  time.Time
	cleared int64
	err     error
}

func (f *fakePruner) PruneViewed(ctx context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.cleared, f.err
}

func TestStatePruneJob(t *testing.T) {
	repo := &fakePruner{cleared: 4}
	job := jobs.NewStatePruneJob(repo, 90*24*time.Hour, time.Minute, zap.NewNop())

	cleared, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), cleared)
	assert.WithinDuration(t, time.Now().Add(-90*24*time.Hour), repo.before, time.Minute)

	repo.err = errors.New("db down")
	_, err = job.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStatePruneJob_DisabledRetention(t *testing.T) {
	repo := &fakePruner{}
	job := jobs.NewStatePruneJob(repo, 0, time.Minute, zap.NewNop())

	cleared, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cleared)
	assert.True(t, repo.before.IsZero(), "pruner must not be called")
}

type fakeSources struct {
	sources []domain.Source
	err     error
}

func (f fakeSources) ListSources(ctx context.Context) ([]domain.Source, error) {
	return f.sources, f.err
}

func TestSourceHealthJob(t *testing.T) {
	job := jobs.NewSourceHealthJob(fakeSources{sources: []domain.Source{
		{ID: "s1", Name: "Feed One", IsActive: true},
		{ID: "s2", Name: "Feed Two", IsActive: true, Error: "timeout"},
		{ID: "s3", Name: "Paused", IsActive: false, Error: "404"},
	}}, time.Minute, zap.NewNop())

	_, ok := job.Snapshot()
	assert.False(t, ok)

	snap := job.RunOnce(context.Background())
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Active)
	require.Len(t, snap.Failing, 1)
	assert.Equal(t, "s2", snap.Failing[0].ID)
	assert.False(t, snap.Healthy())

	stored, ok := job.Snapshot()
	require.True(t, ok)
	assert.Equal(t, snap, stored)
}

func TestSourceHealthJob_PollFailure(t *testing.T) {
	job := jobs.NewSourceHealthJob(fakeSources{err: errors.New("upstream 503")}, time.Minute, zap.NewNop())

	snap := job.RunOnce(context.Background())
	assert.Equal(t, "upstream 503", snap.Error)
	assert.False(t, snap.Healthy())
}
