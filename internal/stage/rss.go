package stage

import (
	"context"
	"fmt"
	"log/slog"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

const (
	SourceRSS = "rss-feed"

	contentPlaceholder = "[Full content would be extracted by Content Extraction Agent]"
)

// RSSFetchDeps wires the feed collaborators.
type RSSFetchDeps struct {
	Fetcher  ports.FeedFetcher
	Parser   ports.FeedParser
	URLs     ports.URLValidator
	Concerns ports.ConcernFilter
	Domains  ports.DomainExtractor
}

// RSSFetch pulls a feed and promotes its first relevant entry into the record.
// Only the first entry is considered per run.
type RSSFetch struct {
	deps   RSSFetchDeps
	logger *slog.Logger
}

var _ Stage = (*RSSFetch)(nil)

// NewRSSFetch builds the RSS source stage.
func NewRSSFetch(deps RSSFetchDeps, log *slog.Logger) *RSSFetch {
	return &RSSFetch{deps: deps, logger: componentLogger(log, KindRSSFetch)}
}

func (r *RSSFetch) Kind() Kind {
	return KindRSSFetch
}

func (r *RSSFetch) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	raw, err := r.deps.Fetcher.FetchFeed(ctx, state.FeedURL)
	if err != nil {
		return state, fmt.Errorf("fetch feed %s: %w", state.FeedURL, err)
	}
	r.logger.Debug("feed fetched", "domain", raw.Domain, "bytes", len(raw.Content))

	entries, err := r.deps.Parser.ParseFeed(ctx, raw.Content)
	if err != nil {
		return state, fmt.Errorf("parse feed %s: %w", state.FeedURL, err)
	}
	if len(entries) == 0 {
		r.logger.Info("feed has no entries", "feed_url", state.FeedURL)
		state.Halt()
		return state, nil
	}

	// TODO: fan out one run per entry once the scheduler can enqueue them.
	entry := entries[0]

	if !r.deps.URLs.IsValidURL(entry.Link) {
		r.logger.Info("entry link is invalid", "link", entry.Link)
		state.AddError("Invalid URL: " + entry.Link)
		state.Halt()
		return state, nil
	}

	concern, err := r.deps.Concerns.HasConcern(ctx, entry.Title, entry.Description)
	if err != nil {
		return state, fmt.Errorf("check concern: %w", err)
	}
	if !concern {
		r.logger.Info("entry has no concern, skipping", "link", entry.Link)
		state.Halt()
		return state, nil
	}

	host := r.deps.Domains.ExtractDomain(entry.Link)

	state.Source = SourceRSS
	state.URL = entry.Link
	state.Domain = host
	state.Title = domain.Ptr(entry.Title)
	state.Description = domain.Ptr(entry.Description)
	state.Content = domain.Ptr(entry.Title + "\n\n" + entry.Description + "\n\n" + contentPlaceholder)
	state.Metadata = map[string]any{
		"title":     entry.Title,
		"rss_name":  state.FeedName,
		"published": entry.Published,
	}
	state.CurrentAgent = AgentRSS
	state.ShouldContinue = true

	r.logger.Debug("entry accepted", "link", entry.Link, "domain", host)
	return state, nil
}
