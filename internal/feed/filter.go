// Package feed implements the dashboard's in-memory filter and sort pipeline
// over already fetched article and source lists. Every function returns a new
// slice and leaves its input untouched.
package feed

import (
	"strings"
	"time"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// Filter selects articles. Empty string fields and the literal "all" match
// everything; all set fields must match.
type Filter struct {
	Industry    string
	Severity    string
	Type        string
	Source      string
	ThreatLevel string
	ThreatType  string
	Keyword     string
	// Search matches title, summary, content and source name, case-insensitively
	Search   string
	Window   Window
	HideRead bool
	HideSpam bool
}

// Predicate reports whether an article is kept
type Predicate func(domain.Article) bool

// Predicates expands the filter into independent predicates. read is the
// read-state mapping consulted by HideRead.
func (f Filter) Predicates(read map[string]bool, now time.Time) []Predicate {
	var preds []Predicate

	if active(f.Industry) {
		preds = append(preds, func(a domain.Article) bool {
			for _, industry := range a.Industries {
				if strings.EqualFold(industry, f.Industry) {
					return true
				}
			}
			return false
		})
	}
	if active(f.Severity) {
		preds = append(preds, fieldEquals(f.Severity, func(a domain.Article) string { return a.Severity }))
	}
	if active(f.Type) {
		preds = append(preds, fieldEquals(f.Type, func(a domain.Article) string { return string(a.Type) }))
	}
	if active(f.Source) {
		preds = append(preds, fieldEquals(f.Source, func(a domain.Article) string { return a.Source }))
	}
	if active(f.ThreatLevel) {
		preds = append(preds, fieldEquals(f.ThreatLevel, func(a domain.Article) string { return a.ThreatLevel }))
	}
	if active(f.ThreatType) {
		preds = append(preds, fieldEquals(f.ThreatType, func(a domain.Article) string { return a.ThreatType }))
	}
	if active(f.Keyword) {
		preds = append(preds, func(a domain.Article) bool {
			for _, m := range a.AlertMatches {
				if m.KeywordID == f.Keyword || strings.EqualFold(m.Name, f.Keyword) {
					return true
				}
			}
			return false
		})
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		preds = append(preds, func(a domain.Article) bool {
			return strings.Contains(strings.ToLower(a.Title), term) ||
				strings.Contains(strings.ToLower(a.Summary), term) ||
				strings.Contains(strings.ToLower(a.Content), term) ||
				strings.Contains(strings.ToLower(a.Source), term)
		})
	}
	if !f.Window.IsAll() {
		cutoff := f.Window.Cutoff(now)
		preds = append(preds, func(a domain.Article) bool {
			return !a.Timestamp().Before(cutoff)
		})
	}
	if f.HideRead {
		preds = append(preds, func(a domain.Article) bool {
			return !read[a.ID]
		})
	}
	if f.HideSpam {
		preds = append(preds, func(a domain.Article) bool {
			return !a.IsSpam
		})
	}
	return preds
}

// Apply returns the articles matching every predicate of f, in input order
func Apply(articles []domain.Article, f Filter, read map[string]bool, now time.Time) []domain.Article {
	return Select(articles, f.Predicates(read, now)...)
}

// Select keeps the articles for which all predicates hold
func Select(articles []domain.Article, preds ...Predicate) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
next:
	for _, a := range articles {
		for _, p := range preds {
			if !p(a) {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

// Run filters then sorts
func Run(articles []domain.Article, f Filter, key SortKey, read map[string]bool, now time.Time) []domain.Article {
	return sortInPlace(Apply(articles, f, read, now), key)
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "all")
}

func fieldEquals(want string, get func(domain.Article) string) Predicate {
	want = strings.TrimSpace(want)
	return func(a domain.Article) bool {
		return strings.EqualFold(get(a), want)
	}
}
