package feed

import (
	"fmt"
	"slices"
	"strings"

	"github.com/threatlens/dashboard-api/internal/domain"
	"golang.org/x/text/collate"
)

// SourceStatus groups sources on the source management page
type SourceStatus string

const (
	SourceStatusActive   SourceStatus = "active"
	SourceStatusInactive SourceStatus = "inactive"
	SourceStatusError    SourceStatus = "error"
)

// SourceFilter selects sources; empty fields match everything
type SourceFilter struct {
	Type     string
	Category string
	Status   SourceStatus
	Search   string
}

// SourceSortKey orders a source list
type SourceSortKey string

const (
	SourceSortNameAsc   SourceSortKey = "name-asc"
	SourceSortNameDesc  SourceSortKey = "name-desc"
	SourceSortLastFetch SourceSortKey = "last-fetch"
)

// ParseSourceStatus validates a status filter value
func ParseSourceStatus(s string) (SourceStatus, error) {
	switch status := SourceStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case "", "all":
		return "", nil
	case SourceStatusActive, SourceStatusInactive, SourceStatusError:
		return status, nil
	default:
		return "", fmt.Errorf("invalid source status %q", s)
	}
}

// ParseSourceSortKey validates a source sort key; empty means name-asc
func ParseSourceSortKey(s string) (SourceSortKey, error) {
	switch key := SourceSortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return SourceSortNameAsc, nil
	case SourceSortNameAsc, SourceSortNameDesc, SourceSortLastFetch:
		return key, nil
	default:
		return "", fmt.Errorf("invalid source sort key %q", s)
	}
}

func (f SourceFilter) matches(s domain.Source) bool {
	if active(f.Type) && !strings.EqualFold(string(s.Type), f.Type) {
		return false
	}
	if active(f.Category) && !strings.EqualFold(s.Category, f.Category) {
		return false
	}
	switch f.Status {
	case SourceStatusActive:
		if !s.IsActive {
			return false
		}
	case SourceStatusInactive:
		if s.IsActive {
			return false
		}
	case SourceStatusError:
		if s.Error == "" {
			return false
		}
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(s.Name), term) && !strings.Contains(strings.ToLower(s.URL), term) {
			return false
		}
	}
	return true
}

// ApplySources filters then sorts a copy of sources
func ApplySources(sources []domain.Source, f SourceFilter, key SourceSortKey) []domain.Source {
	out := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		if f.matches(s) {
			out = append(out, s)
		}
	}

	switch key {
	case SourceSortLastFetch:
		// most recent first, never-fetched last
		slices.SortStableFunc(out, func(a, b domain.Source) int {
			switch {
			case a.LastFetch == nil && b.LastFetch == nil:
				return 0
			case a.LastFetch == nil:
				return 1
			case b.LastFetch == nil:
				return -1
			}
			return b.LastFetch.Compare(*a.LastFetch)
		})
	default:
		col := collate.New(Language, collate.Loose)
		sign := 1
		if key == SourceSortNameDesc {
			sign = -1
		}
		slices.SortStableFunc(out, func(a, b domain.Source) int {
			return sign * col.CompareString(a.Name, b.Name)
		})
	}
	return out
}
