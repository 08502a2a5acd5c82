package stage

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

const (
	SourceCourtListener = "court_listener"
	CourtListenerDomain = "courtlistener.com"

	fallbackDocumentURL = "https://courtlistener.com/case/12345"
)

var caseQuery = map[string]string{
	"date_filed__gte": "2024-01-01",
	"court":           "Supreme Court",
}

// CaseQuery returns the fixed search parameters used by APIFetch.
func CaseQuery() map[string]string {
	return maps.Clone(caseQuery)
}

// APIFetchDeps wires the case-law collaborators.
type APIFetchDeps struct {
	Search ports.CaseSearcher
	Scrape ports.DocumentScraper
}

// APIFetch pulls the first case document from the case-law API.
type APIFetch struct {
	deps   APIFetchDeps
	logger *slog.Logger
}

var _ Stage = (*APIFetch)(nil)

// NewAPIFetch builds the case-law source stage.
func NewAPIFetch(deps APIFetchDeps, log *slog.Logger) *APIFetch {
	return &APIFetch{deps: deps, logger: componentLogger(log, KindAPIFetch)}
}

func (a *APIFetch) Kind() Kind {
	return KindAPIFetch
}

func (a *APIFetch) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	docs, err := a.deps.Search.SearchCases(ctx, CaseQuery())
	if err != nil {
		return state, fmt.Errorf("search cases: %w", err)
	}
	a.logger.Debug("case search done", "documents", len(docs))

	// An empty search passes through with an empty document.
	var doc domain.CaseDocument
	if len(docs) > 0 {
		doc = docs[0]
	}

	docURL := doc.URL
	if docURL == "" {
		docURL = fallbackDocumentURL
	}

	scraped, err := a.deps.Scrape.ScrapeDocument(ctx, docURL)
	if err != nil {
		return state, fmt.Errorf("scrape document %s: %w", docURL, err)
	}

	state.Source = SourceCourtListener
	state.URL = scraped.PDFURL
	if state.URL == "" {
		state.URL = doc.URL
	}
	state.Domain = CourtListenerDomain
	state.Title = domain.Ptr(scraped.Title)
	state.Description = domain.Ptr(scraped.Description)
	state.Content = domain.Ptr(scraped.Content)
	state.Metadata = map[string]any{
		"case_name":   doc.CaseName,
		"docket_id":   doc.DocketID,
		"document_id": doc.DocumentID,
	}
	state.CurrentAgent = AgentAPI
	state.ShouldContinue = true

	a.logger.Debug("document scraped", "url", state.URL, "content_chars", len(scraped.Content))
	return state, nil
}
