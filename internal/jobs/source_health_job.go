package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// SourceHealthJobName is the name of the source polling job
const SourceHealthJobName = "source_health"

// SourceLister fetches the upstream source list
type SourceLister interface {
	ListSources(ctx context.Context) ([]domain.Source, error)
}

// FailingSource is an active source whose last fetch reported an error
type FailingSource struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// SourceHealthSnapshot is the result of the last poll
type SourceHealthSnapshot struct {
	CheckedAt time.Time       `json:"checkedAt"`
	Total     int             `json:"total"`
	Active    int             `json:"active"`
	Failing   []FailingSource `json:"failing"`
	// Error is set when the poll itself failed
	Error string `json:"error,omitempty"`
}

// Healthy reports whether the poll succeeded and no active source is failing
func (s SourceHealthSnapshot) Healthy() bool {
	return s.Error == "" && len(s.Failing) == 0
}

// SourceHealthJob polls the upstream sources with the service key
type SourceHealthJob struct {
	sources SourceLister
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu   sync.RWMutex
	last *SourceHealthSnapshot
}

func NewSourceHealthJob(sources SourceLister, timeout time.Duration, logger *zap.Logger) *SourceHealthJob {
	return &SourceHealthJob{
		sources: sources,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Run is called by the scheduler
func (j *SourceHealthJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	j.RunOnce(ctx)
}

// RunOnce polls once, stores and returns the snapshot
func (j *SourceHealthJob) RunOnce(ctx context.Context) SourceHealthSnapshot {
	snap := SourceHealthSnapshot{CheckedAt: j.now().UTC(), Failing: []FailingSource{}}

	sources, err := j.sources.ListSources(threatapi.AsService(ctx))
	if err != nil {
		snap.Error = err.Error()
		j.logger.Error("source health poll failed", zap.Error(err))
		j.store(snap)
		return snap
	}

	snap.Total = len(sources)
	for _, s := range sources {
		if !s.IsActive {
			continue
		}
		snap.Active++
		if s.Error != "" {
			snap.Failing = append(snap.Failing, FailingSource{ID: s.ID, Name: s.Name, Error: s.Error})
			j.logger.Warn("source failing",
				zap.String("source_id", s.ID),
				zap.String("source_name", s.Name),
				zap.String("error", s.Error))
		}
	}

	j.logger.Info("source health polled",
		zap.Int("total", snap.Total),
		zap.Int("active", snap.Active),
		zap.Int("failing", len(snap.Failing)))
	j.store(snap)
	return snap
}

func (j *SourceHealthJob) store(snap SourceHealthSnapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.last = &snap
}

// Snapshot returns the last poll result, if any
func (j *SourceHealthJob) Snapshot() (SourceHealthSnapshot, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.last == nil {
		return SourceHealthSnapshot{}, false
	}
	return *j.last, true
}
