package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/domain"
)

func TestAlertMatch_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.AlertMatch
	}{
		{
			name: "object form",
			body: `[{"keywordId":"kw1","name":"ransomware"}]`,
			want: []domain.AlertMatch{{KeywordID: "kw1", Name: "ransomware"}},
		},
		{
			name: "legacy string ids",
			body: `["kw1","kw2"]`,
			want: []domain.AlertMatch{{KeywordID: "kw1"}, {KeywordID: "kw2"}},
		},
		{
			name: "mixed with id and keyword aliases",
			body: `["kw1",{"id":"kw2","keyword":"phishing"}]`,
			want: []domain.AlertMatch{{KeywordID: "kw1"}, {KeywordID: "kw2", Name: "phishing"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []domain.AlertMatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlertMatch_UnmarshalJSON_Invalid(t *testing.T) {
	var got []domain.AlertMatch
	assert.Error(t, json.Unmarshal([]byte(`[42]`), &got))
}

func TestArticle_Timestamp(t *testing.T) {
	assert.Equal(t, time.Unix(0, 0).UTC(), domain.Article{}.Timestamp())

	published := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, published, domain.Article{PublishedAt: &published}.Timestamp())
}

func TestArticle_UnmarshalJSON_PublishedAt(t *testing.T) {
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		body string
		want *time.Time
	}{
		{"rfc3339", `{"id":"a1","publishedAt":"2024-01-01T10:00:00Z"}`, &want},
		{"space separated", `{"id":"a1","publishedAt":"2024-01-01 10:00:00"}`, &want},
		{"no zone", `{"id":"a1","publishedAt":"2024-01-01T10:00:00"}`, &want},
		{"rfc1123z", `{"id":"a1","publishedAt":"Mon, 01 Jan 2024 10:00:00 +0000"}`, &want},
		{"unix seconds", `{"id":"a1","publishedAt":1704103200}`, &want},
		{"unix millis", `{"id":"a1","publishedAt":1704103200000}`, &want},
		{"empty string", `{"id":"a1","publishedAt":""}`, nil},
		{"garbage", `{"id":"a1","publishedAt":"last tuesday"}`, nil},
		{"null", `{"id":"a1","publishedAt":null}`, nil},
		{"missing", `{"id":"a1"}`, nil},
		{"wrong type", `{"id":"a1","publishedAt":{"ts":1}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a domain.Article
			require.NoError(t, json.Unmarshal([]byte(tt.body), &a))
			assert.Equal(t, "a1", a.ID)
			if tt.want == nil {
				assert.Nil(t, a.PublishedAt)
				assert.Equal(t, time.Unix(0, 0).UTC(), a.Timestamp())
				return
			}
			require.NotNil(t, a.PublishedAt)
			assert.True(t, tt.want.Equal(*a.PublishedAt), "got %s", a.PublishedAt)
		})
	}
}

func TestArticle_UnmarshalJSON_KeepsOtherFields(t *testing.T) {
	var a domain.Article
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","title":"VPN","read":true,"alertMatches":["kw1"],"publishedAt":""}`), &a))
	assert.Equal(t, "VPN", a.Title)
	assert.True(t, a.Read)
	assert.Equal(t, []domain.AlertMatch{{KeywordID: "kw1"}}, a.AlertMatches)
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, domain.User{Role: domain.RoleAdmin}.IsAdmin())
	assert.False(t, domain.User{Role: domain.RoleUser}.IsAdmin())
}
