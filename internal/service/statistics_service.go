package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

var emptyStatistics = domain.Statistics(json.RawMessage(`{}`))

// StatisticsService proxies the upstream statistics views
type StatisticsService struct {
	client *threatapi.Client
	logger *zap.Logger
}

func NewStatisticsService(client *threatapi.Client, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{client: client, logger: logger}
}

// Get returns one statistics view. Upstream failures other than auth
// errors degrade to an empty object so the dashboard still renders.
func (s *StatisticsService) Get(ctx context.Context, kind threatapi.StatisticsKind) (domain.Statistics, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown statistics view %q", ErrInvalidInput, kind)
	}
	stats, err := s.client.GetStatistics(ctx, kind)
	if err != nil {
		mapped := fromUpstream(err)
		switch threatapi.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, mapped
		}
		s.logger.Warn("statistics unavailable, returning empty view", zap.String("kind", string(kind)), zap.Error(err))
		return emptyStatistics, nil
	}
	return stats, nil
}
