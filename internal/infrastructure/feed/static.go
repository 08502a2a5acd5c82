package feed

import (
	"context"
	"net/url"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// Static serves a canned two-entry feed for offline runs and demos.
type Static struct {
	Entries []domain.FeedEntry
}

var (
	_ ports.FeedFetcher = (*Static)(nil)
	_ ports.FeedParser  = (*Static)(nil)
)

// NewStatic returns a Static loaded with the sample insurance entries.
func NewStatic() *Static {
	return &Static{Entries: []domain.FeedEntry{
		{
			Title:       "Insurance Regulation Update 2024",
			Description: "New regulations affecting insurance companies in 2024",
			Link:        "https://example.com/article1",
			Published:   "2024-01-15T10:00:00Z",
		},
		{
			Title:       "Climate Risk Assessment Guidelines",
			Description: "New guidelines for assessing climate-related risks",
			Link:        "https://example.com/article2",
			Published:   "2024-01-14T15:30:00Z",
		},
	}}
}

// FetchFeed returns a placeholder document tagged with the feed host.
func (s *Static) FetchFeed(ctx context.Context, feedURL string) (domain.RawFeed, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawFeed{}, err
	}
	host := ""
	if u, err := url.Parse(feedURL); err == nil {
		host = u.Host
	}
	return domain.RawFeed{Content: []byte("<rss>...</rss>"), URL: feedURL, Domain: host}, nil
}

// ParseFeed ignores its input and returns a copy of the canned entries.
func (s *Static) ParseFeed(ctx context.Context, _ []byte) ([]domain.FeedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.FeedEntry, len(s.Entries))
	copy(out, s.Entries)
	return out, nil
}
