package ports

import (
	"context"
	"time"

	"ContentIngest/internal/domain"
)

// FeedFetcher downloads raw feed content.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, feedURL string) (domain.RawFeed, error)
}

// FeedParser turns raw feed content into ordered entries.
type FeedParser interface {
	ParseFeed(ctx context.Context, raw []byte) ([]domain.FeedEntry, error)
}

// URLValidator reports whether a link is well formed. It never fails.
type URLValidator interface {
	IsValidURL(raw string) bool
}

// DomainExtractor returns the host of a link, or "unknown".
type DomainExtractor interface {
	ExtractDomain(raw string) string
}

// ConcernFilter is the cheap pre-check run before any downstream work.
type ConcernFilter interface {
	HasConcern(ctx context.Context, title, description string) (bool, error)
}

// CaseSearcher queries the case-law API.
type CaseSearcher interface {
	SearchCases(ctx context.Context, params map[string]string) ([]domain.CaseDocument, error)
}

// DocumentScraper extracts text from a case document page.
type DocumentScraper interface {
	ScrapeDocument(ctx context.Context, docURL string) (domain.ScrapedDocument, error)
}

// ContentClassifier tags content with risks and industry codes.
type ContentClassifier interface {
	Classify(ctx context.Context, content string) (domain.Classification, error)
}

// ObjectStore writes JSON-serializable payloads to blob storage.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, payload any) (bool, error)
}

// RunRepository keeps a ledger of pipeline runs for monitoring.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Notifier streams run alerts to Telegram or other channels.
type Notifier interface {
	PublishAlert(ctx context.Context, message string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Add(spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
