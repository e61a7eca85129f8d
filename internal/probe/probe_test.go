package probe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/probe"
	"go.uber.org/zap"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Threat Feed</title>
    <link>https://intel.example.com</link>
    <item><title>First</title><link>https://intel.example.com/1</link><pubDate>Mon, 03 Jun 2024 10:00:00 GMT</pubDate></item>
    <item><title>Second</title><link>https://intel.example.com/2</link></item>
    <item><title>Third</title><link>https://intel.example.com/3</link></item>
  </channel>
</rss>`

func TestPreview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(rssFeed))
		case "/html":
			_, _ = w.Write([]byte("<html><body>not a feed</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := probe.NewProber(&config.ProbeConfig{Timeout: 5, MaxItems: 2, AllowPrivateNetworks: true}, zap.NewNop())

	t.Run("rss", func(t *testing.T) {
		preview, err := p.Preview(context.Background(), srv.URL+"/rss")
		require.NoError(t, err)
		assert.Equal(t, "Threat Feed", preview.Title)
		assert.Equal(t, "rss", preview.FeedType)
		assert.Equal(t, 3, preview.ItemCount)
		require.Len(t, preview.Items, 2)
		assert.Equal(t, "First", preview.Items[0].Title)
		assert.NotNil(t, preview.Items[0].Published)
		assert.Nil(t, preview.Items[1].Published)
	})

	t.Run("not a feed", func(t *testing.T) {
		_, err := p.Preview(context.Background(), srv.URL+"/html")
		assert.ErrorIs(t, err, probe.ErrUnparseable)
	})

	t.Run("http error", func(t *testing.T) {
		_, err := p.Preview(context.Background(), srv.URL+"/missing")
		require.Error(t, err)
		assert.NotErrorIs(t, err, probe.ErrUnparseable)
	})
}

func TestPreview_RefusesInternalAddresses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	p := probe.NewProber(&config.ProbeConfig{Timeout: 2}, zap.NewNop())

	for _, target := range []string{
		srv.URL + "/rss",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]:80/feed",
		"http://10.0.0.8/feed",
		"http://0.0.0.0/feed",
	} {
		t.Run(target, func(t *testing.T) {
			_, err := p.Preview(context.Background(), target)
			assert.ErrorIs(t, err, probe.ErrBlockedAddress)
		})
	}
	assert.Zero(t, hits)
}

func TestPreview_RefusesNonHTTPSchemes(t *testing.T) {
	p := probe.NewProber(&config.ProbeConfig{Timeout: 2, AllowPrivateNetworks: true}, zap.NewNop())
	for _, target := range []string{"file:///etc/passwd", "gopher://example.com/", "ftp://example.com/feed", "/relative/feed", "http://"} {
		_, err := p.Preview(context.Background(), target)
		assert.ErrorIs(t, err, probe.ErrUnsupportedURL, target)
	}
}
