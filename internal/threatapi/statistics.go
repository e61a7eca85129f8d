package threatapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// StatisticsKind selects one of the upstream statistics reports
type StatisticsKind string

const (
	StatisticsOverview StatisticsKind = "overview"
	StatisticsSources  StatisticsKind = "sources"
	StatisticsThreats  StatisticsKind = "threats"
)

// Valid reports whether k names a known report
func (k StatisticsKind) Valid() bool {
	switch k {
	case StatisticsOverview, StatisticsSources, StatisticsThreats:
		return true
	}
	return false
}

// GetStatistics fetches a statistics report, unwrapping the success envelope if present
func (c *Client) GetStatistics(ctx context.Context, kind StatisticsKind) (domain.Statistics, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown statistics report %q", kind)
	}
	resp, err := c.do(ctx, http.MethodGet, "/statistics/"+string(kind), nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeRaw(resp.body)
}
