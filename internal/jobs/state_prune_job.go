package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatePruneJobName is the name of the viewed-marker pruning job
const StatePruneJobName = "state_prune"

// ViewedPruner clears viewed markers older than a cutoff
type ViewedPruner interface {
	PruneViewed(ctx context.Context, before time.Time) (int64, error)
}

// StatePruneJob drops viewed markers older than the retention period
type StatePruneJob struct {
	repo      ViewedPruner
	retention time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewStatePruneJob(repo ViewedPruner, retention, timeout time.Duration, logger *zap.Logger) *StatePruneJob {
	return &StatePruneJob{
		repo:      repo,
		retention: retention,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Run is called by the scheduler
func (j *StatePruneJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

// RunOnce prunes once and reports how many markers were cleared
func (j *StatePruneJob) RunOnce(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, nil
	}
	start := j.now()
	cutoff := start.Add(-j.retention).UTC()

	cleared, err := j.repo.PruneViewed(ctx, cutoff)
	if err != nil {
		j.logger.Error("viewed marker pruning failed",
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return 0, err
	}

	j.logger.Info("viewed markers pruned",
		zap.Int64("cleared", cleared),
		zap.Time("cutoff", cutoff),
		zap.Duration("duration", time.Since(start)))
	return cleared, nil
}
