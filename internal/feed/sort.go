package feed

import (
	"fmt"
	"slices"
	"strings"

	"github.com/threatlens/dashboard-api/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey orders an article list
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortTitleAsc  SortKey = "title-asc"
	SortTitleDesc SortKey = "title-desc"
)

// Language drives locale-aware title comparison
var Language = language.English

// ParseSortKey validates a sort key; empty means newest
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortTitleAsc, SortTitleDesc:
		return key, nil
	default:
		return "", fmt.Errorf("invalid sort key %q", s)
	}
}

// Sort returns a sorted copy of articles. Ties keep their input order.
func Sort(articles []domain.Article, key SortKey) []domain.Article {
	return sortInPlace(slices.Clone(articles), key)
}

func sortInPlace(articles []domain.Article, key SortKey) []domain.Article {
	switch key {
	case SortOldest:
		slices.SortStableFunc(articles, func(a, b domain.Article) int {
			return a.Timestamp().Compare(b.Timestamp())
		})
	case SortTitleAsc, SortTitleDesc:
		// Collators keep internal buffers, so each sort gets its own.
		col := collate.New(Language, collate.Loose)
		sign := 1
		if key == SortTitleDesc {
			sign = -1
		}
		slices.SortStableFunc(articles, func(a, b domain.Article) int {
			return sign * col.CompareString(a.Title, b.Title)
		})
	default:
		slices.SortStableFunc(articles, func(a, b domain.Article) int {
			return b.Timestamp().Compare(a.Timestamp())
		})
	}
	return articles
}
