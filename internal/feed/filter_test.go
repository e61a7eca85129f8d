package feed_test

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func sample() []domain.Article {
	return []domain.Article{
		{ID: "a1", Title: "Ransomware hits hospital", Source: "BleepingComputer", PublishedAt: at(2 * time.Hour),
			Severity: "high", ThreatLevel: "critical", ThreatType: "ransomware", Type: domain.ArticleTypeNews,
			Industries: []string{"Healthcare"}, AlertMatches: []domain.AlertMatch{{KeywordID: "kw1", Name: "ransomware"}}},
		{ID: "a2", Title: "Phishing kit sold on forum", Source: "XSS", PublishedAt: at(3 * 24 * time.Hour),
			Severity: "medium", ThreatLevel: "elevated", ThreatType: "phishing", Type: domain.ArticleTypeForum,
			Industries: []string{"Finance", "Retail"}},
		{ID: "a3", Title: "Patch Tuesday roundup", Source: "BleepingComputer", PublishedAt: at(40 * 24 * time.Hour),
			Severity: "low", ThreatLevel: "guarded", ThreatType: "vulnerability", Type: domain.ArticleTypeNews,
			Industries: []string{"Technology"}},
		{ID: "a4", Title: "Undated leak notice", Source: "Pastebin", Type: domain.ArticleTypeForum, IsSpam: true,
			Summary: "Credentials dump for a regional bank", Industries: []string{"Finance"}, AlertMatches: []domain.AlertMatch{{KeywordID: "kw2"}}},
	}
}

func ids(articles []domain.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter feed.Filter
		read   map[string]bool
		want   []string
	}{
		{"no filter", feed.Filter{}, nil, []string{"a1", "a2", "a3", "a4"}},
		{"all literal", feed.Filter{Industry: "all", Severity: "All"}, nil, []string{"a1", "a2", "a3", "a4"}},
		{"industry case insensitive", feed.Filter{Industry: "finance"}, nil, []string{"a2", "a4"}},
		{"severity", feed.Filter{Severity: "high"}, nil, []string{"a1"}},
		{"type", feed.Filter{Type: "forum"}, nil, []string{"a2", "a4"}},
		{"source", feed.Filter{Source: "bleepingcomputer"}, nil, []string{"a1", "a3"}},
		{"threat level", feed.Filter{ThreatLevel: "elevated"}, nil, []string{"a2"}},
		{"threat type", feed.Filter{ThreatType: "vulnerability"}, nil, []string{"a3"}},
		{"keyword by id", feed.Filter{Keyword: "kw2"}, nil, []string{"a4"}},
		{"keyword by name", feed.Filter{Keyword: "Ransomware"}, nil, []string{"a1"}},
		{"search", feed.Filter{Search: "PATCH"}, nil, []string{"a3"}},
		{"search summary", feed.Filter{Search: "regional bank"}, nil, []string{"a4"}},
		{"search source name", feed.Filter{Search: "bleeping"}, nil, []string{"a1", "a3"}},
		{"hide spam", feed.Filter{HideSpam: true}, nil, []string{"a1", "a2", "a3"}},
		{"24h window", feed.Filter{Window: mustWindow(t, "24h")}, nil, []string{"a1"}},
		{"7d window", feed.Filter{Window: mustWindow(t, "7d")}, nil, []string{"a1", "a2"}},
		{"90d window excludes undated", feed.Filter{Window: mustWindow(t, "90d")}, nil, []string{"a1", "a2", "a3"}},
		{"hide read", feed.Filter{HideRead: true}, map[string]bool{"a1": true, "a3": false}, []string{"a2", "a3", "a4"}},
		{"conjunction", feed.Filter{Type: "news", Source: "BleepingComputer", Window: mustWindow(t, "30d")}, nil, []string{"a1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(feed.Apply(sample(), tt.filter, tt.read, now)))
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	input := sample()
	snapshot := sample()

	out := feed.Run(input, feed.Filter{Type: "news"}, feed.SortTitleAsc, nil, now)
	require.NotEmpty(t, out)
	out[0].Title = "changed"

	assert.Equal(t, snapshot, input)
}

func TestWindowBoundaryIsInclusive(t *testing.T) {
	w := mustWindow(t, "24h")
	articles := []domain.Article{{ID: "edge", PublishedAt: at(24 * time.Hour)}}
	assert.Equal(t, []string{"edge"}, ids(feed.Apply(articles, feed.Filter{Window: w}, nil, now)))
}

// randomArticles builds a deterministic pseudo-random feed with distinct timestamps
func randomArticles(r *rand.Rand, n int) []domain.Article {
	severities := []string{"low", "medium", "high"}
	types := []domain.ArticleType{domain.ArticleTypeNews, domain.ArticleTypeForum}
	industries := []string{"Finance", "Healthcare", "Energy"}
	perm := r.Perm(n * 10)

	out := make([]domain.Article, n)
	for i := range out {
		a := domain.Article{
			ID:         fmt.Sprintf("r%d", i),
			Title:      fmt.Sprintf("Title %c%d", 'A'+r.Intn(26), r.Intn(100)),
			Severity:   severities[r.Intn(len(severities))],
			Type:       types[r.Intn(len(types))],
			Industries: []string{industries[r.Intn(len(industries))]},
		}
		if r.Intn(8) != 0 {
			a.PublishedAt = at(time.Duration(perm[i]) * time.Hour)
		}
		out[i] = a
	}
	return out
}

func randomFilter(r *rand.Rand) feed.Filter {
	pick := func(values ...string) string { return values[r.Intn(len(values))] }
	windows := []feed.Window{feed.WindowAll, feed.Window(24 * time.Hour), feed.Window(7 * 24 * time.Hour), feed.Window(30 * 24 * time.Hour)}
	return feed.Filter{
		Severity: pick("", "low", "medium", "high"),
		Type:     pick("", "news", "forum"),
		Industry: pick("", "Finance", "Energy"),
		Window:   windows[r.Intn(len(windows))],
		HideRead: r.Intn(2) == 0,
	}
}

func TestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		articles := randomArticles(r, 30)
		f := randomFilter(r)
		read := map[string]bool{}
		for _, a := range articles {
			if r.Intn(3) == 0 {
				read[a.ID] = r.Intn(2) == 0
			}
		}

		out := feed.Apply(articles, f, read, now)

		// subset
		inputIDs := ids(articles)
		for _, id := range ids(out) {
			assert.Contains(t, inputIDs, id)
		}

		// idempotent
		assert.Equal(t, out, feed.Apply(out, f, read, now))

		// hide read removes exactly the ids mapped to true
		if f.HideRead {
			unfiltered := feed.Apply(articles, feed.Filter{HideRead: true}, read, now)
			for _, a := range articles {
				assert.Equal(t, !read[a.ID], slices.Contains(ids(unfiltered), a.ID), a.ID)
			}
		}

		// undated articles never survive a positive window
		if !f.Window.IsAll() {
			for _, a := range out {
				assert.NotNil(t, a.PublishedAt)
			}
		}
	}
}

func mustWindow(t *testing.T, s string) feed.Window {
	t.Helper()
	w, err := feed.ParseWindow(s)
	require.NoError(t, err)
	return w
}
