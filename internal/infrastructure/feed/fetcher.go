package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

const maxFeedBytes = 8 << 20

// HTTPFetcher downloads feed documents over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.FeedFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wires an HTTP client; a nil client gets a 20s timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTTPFetcher{client: client, userAgent: "ContentIngest/1.0"}
}

// FetchFeed returns the raw feed body and the host it was requested from.
func (f *HTTPFetcher) FetchFeed(ctx context.Context, feedURL string) (domain.RawFeed, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil || parsed.Host == "" {
		return domain.RawFeed{}, fmt.Errorf("invalid feed url %q", feedURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return domain.RawFeed{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.RawFeed{}, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RawFeed{}, fmt.Errorf("feed %s returned %s", parsed.Host, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return domain.RawFeed{}, fmt.Errorf("read feed: %w", err)
	}

	return domain.RawFeed{Content: body, URL: feedURL, Domain: parsed.Host}, nil
}
