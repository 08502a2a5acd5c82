package stage

import (
	"context"
	"net/url"

	"ContentIngest/internal/domain"
)

type fakeFetcher struct {
	calls int
	err   error
}

func (f *fakeFetcher) FetchFeed(_ context.Context, feedURL string) (domain.RawFeed, error) {
	f.calls++
	if f.err != nil {
		return domain.RawFeed{}, f.err
	}
	return domain.RawFeed{Content: []byte("<rss></rss>"), URL: feedURL, Domain: "example.com"}, nil
}

type fakeParser struct {
	entries []domain.FeedEntry
	err     error
}

func (f *fakeParser) ParseFeed(context.Context, []byte) ([]domain.FeedEntry, error) {
	return f.entries, f.err
}

type fakeURLs struct {
	calls int
}

func (f *fakeURLs) IsValidURL(raw string) bool {
	f.calls++
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

type fakeConcerns struct {
	calls  int
	answer bool
	err    error
}

func (f *fakeConcerns) HasConcern(context.Context, string, string) (bool, error) {
	f.calls++
	return f.answer, f.err
}

type fakeDomains struct {
	calls int
}

func (f *fakeDomains) ExtractDomain(raw string) string {
	f.calls++
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

type fakeSearch struct {
	docs   []domain.CaseDocument
	params map[string]string
	err    error
}

func (f *fakeSearch) SearchCases(_ context.Context, params map[string]string) ([]domain.CaseDocument, error) {
	f.params = params
	return f.docs, f.err
}

type fakeScrape struct {
	doc    domain.ScrapedDocument
	gotURL string
	err    error
}

func (f *fakeScrape) ScrapeDocument(_ context.Context, docURL string) (domain.ScrapedDocument, error) {
	f.gotURL = docURL
	return f.doc, f.err
}

type fakeClassifier struct {
	result  domain.Classification
	content string
	err     error
}

func (f *fakeClassifier) Classify(_ context.Context, content string) (domain.Classification, error) {
	f.content = content
	return f.result, f.err
}

type fakeObjects struct {
	bucket  string
	key     string
	payload any
	ok      bool
	err     error
}

func (f *fakeObjects) Put(_ context.Context, bucket, key string, payload any) (bool, error) {
	f.bucket, f.key, f.payload = bucket, key, payload
	return f.ok, f.err
}

func rssDeps(entries []domain.FeedEntry, concern bool) (RSSFetchDeps, *fakeURLs, *fakeConcerns, *fakeDomains) {
	urls := &fakeURLs{}
	concerns := &fakeConcerns{answer: concern}
	domains := &fakeDomains{}
	return RSSFetchDeps{
		Fetcher:  &fakeFetcher{},
		Parser:   &fakeParser{entries: entries},
		URLs:     urls,
		Concerns: concerns,
		Domains:  domains,
	}, urls, concerns, domains
}
