package feed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
)

func sampleSources() []domain.Source {
	return []domain.Source{
		{ID: "s1", Name: "The Record", URL: "https://therecord.media/feed", Category: "news", Type: domain.ArticleTypeNews, IsActive: true, LastFetch: at(time.Hour)},
		{ID: "s2", Name: "breachforums", URL: "http://forum.example/rss", Category: "forum", Type: domain.ArticleTypeForum, IsActive: false, Error: "timeout"},
		{ID: "s3", Name: "Krebs", URL: "https://krebsonsecurity.com/feed", Category: "news", Type: domain.ArticleTypeNews, IsActive: true, LastFetch: at(10 * time.Minute), Error: "HTTP 503"},
	}
}

func sourceIDs(sources []domain.Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.ID)
	}
	return out
}

func TestApplySources(t *testing.T) {
	tests := []struct {
		name   string
		filter feed.SourceFilter
		key    feed.SourceSortKey
		want   []string
	}{
		{"name asc", feed.SourceFilter{}, feed.SourceSortNameAsc, []string{"s2", "s3", "s1"}},
		{"name desc", feed.SourceFilter{}, feed.SourceSortNameDesc, []string{"s1", "s3", "s2"}},
		{"last fetch puts never fetched last", feed.SourceFilter{}, feed.SourceSortLastFetch, []string{"s3", "s1", "s2"}},
		{"active", feed.SourceFilter{Status: feed.SourceStatusActive}, feed.SourceSortNameAsc, []string{"s3", "s1"}},
		{"inactive", feed.SourceFilter{Status: feed.SourceStatusInactive}, feed.SourceSortNameAsc, []string{"s2"}},
		{"error", feed.SourceFilter{Status: feed.SourceStatusError}, feed.SourceSortNameAsc, []string{"s2", "s3"}},
		{"type and category", feed.SourceFilter{Type: "news", Category: "NEWS"}, feed.SourceSortNameAsc, []string{"s3", "s1"}},
		{"search matches url", feed.SourceFilter{Search: "krebsonsecurity"}, feed.SourceSortNameAsc, []string{"s3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceIDs(feed.ApplySources(sampleSources(), tt.filter, tt.key)))
		})
	}
}

func TestParseSourceStatus(t *testing.T) {
	s, err := feed.ParseSourceStatus("ERROR")
	require.NoError(t, err)
	assert.Equal(t, feed.SourceStatusError, s)

	s, err = feed.ParseSourceStatus("all")
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = feed.ParseSourceStatus("broken")
	assert.Error(t, err)

	key, err := feed.ParseSourceSortKey("")
	require.NoError(t, err)
	assert.Equal(t, feed.SourceSortNameAsc, key)
}
