// Package probe previews RSS/Atom feeds before they are registered as sources.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrUnparseable means the URL was reachable but did not contain a feed
	ErrUnparseable = errors.New("not a valid RSS or Atom feed")

	// ErrUnsupportedURL means the URL is not an absolute http or https URL
	ErrUnsupportedURL = errors.New("feed URL must be http or https")

	// ErrBlockedAddress means the feed host resolved to a loopback, private or link-local address
	ErrBlockedAddress = errors.New("feed address is not publicly routable")
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxItems = 10
)

// Prober fetches and parses feeds
type Prober struct {
	parser   *gofeed.Parser
	timeout  time.Duration
	maxItems int
	logger   *zap.Logger
}

func NewProber(cfg *config.ProbeConfig, logger *zap.Logger) *Prober {
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}

	dialer := &net.Dialer{Timeout: timeout}
	if !cfg.AllowPrivateNetworks {
		dialer.Control = guardAddress
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout: timeout,
		// no proxy: the guard must see the address actually dialled
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
		},
	}
	parser.UserAgent = "threat-dashboard-probe/1.0"

	return &Prober{parser: parser, timeout: timeout, maxItems: maxItems, logger: logger}
}

// guardAddress runs after DNS resolution for every connection, redirects included
func guardAddress(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !publicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

func publicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsUnspecified() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!sharedAddressSpace.Contains(addr)
}

// 100.64.0.0/10, carrier-grade NAT
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Preview fetches feedURL and summarises the feed
func (p *Prober) Preview(ctx context.Context, feedURL string) (*domain.FeedPreviewDTO, error) {
	u, err := url.Parse(feedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, feedURL)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if errors.Is(err, ErrBlockedAddress) {
			p.logger.Warn("Feed preview blocked", zap.String("url", feedURL), zap.Error(err))
			return nil, fmt.Errorf("%w: %s", ErrBlockedAddress, u.Hostname())
		}
		var httpErr gofeed.HTTPError
		var urlErr *url.Error
		if errors.As(err, &httpErr) || errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
			p.logger.Warn("Feed preview fetch failed", zap.String("url", feedURL), zap.Error(err))
			return nil, fmt.Errorf("fetch feed: %w", err)
		}
		p.logger.Info("Feed preview parse failed", zap.String("url", feedURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	preview := &domain.FeedPreviewDTO{
		Title:     feed.Title,
		Link:      feed.Link,
		FeedType:  feed.FeedType,
		ItemCount: len(feed.Items),
		Items:     make([]domain.FeedItemDTO, 0, min(len(feed.Items), p.maxItems)),
	}
	for _, item := range feed.Items {
		if len(preview.Items) == p.maxItems {
			break
		}
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		preview.Items = append(preview.Items, domain.FeedItemDTO{
			Title:     item.Title,
			Link:      item.Link,
			Published: published,
		})
	}
	return preview, nil
}
