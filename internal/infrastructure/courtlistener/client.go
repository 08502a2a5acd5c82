// Package courtlistener talks to the CourtListener case-law service: the REST
// search API for docket hits and the public document pages for their text.
package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// DefaultBaseURL is the public CourtListener site.
const DefaultBaseURL = "https://www.courtlistener.com"

const searchPath = "/api/rest/v4/search/"

// queryKeys maps filter names used by the pipeline onto search API params.
var queryKeys = map[string]string{
	"date_filed__gte": "filed_after",
	"date_filed__lte": "filed_before",
	"court":           "court",
	"q":               "q",
}

// courtIDs maps court display names onto CourtListener court identifiers.
// Values not listed here are sent unchanged.
var courtIDs = map[string]string{
	"supreme court":                            "scotus",
	"supreme court of the united states":       "scotus",
	"court of appeals for the federal circuit": "cafc",
	"court of appeals for the d.c. circuit":    "cadc",
}

func courtID(name string) string {
	if id, ok := courtIDs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return name
}

// Client implements CaseSearcher and DocumentScraper against CourtListener.
type Client struct {
	base      *url.URL
	token     string
	userAgent string
	http      *http.Client
}

var (
	_ ports.CaseSearcher    = (*Client)(nil)
	_ ports.DocumentScraper = (*Client)(nil)
)

// NewClient builds a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid courtlistener base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{base: base, token: token, userAgent: "ContentIngest/1.0", http: httpClient}, nil
}

type searchResponse struct {
	Results []searchHit `json:"results"`
}

type searchHit struct {
	CaseName       string        `json:"caseName"`
	DocketID       json.Number   `json:"docket_id"`
	AbsoluteURL    string        `json:"absolute_url"`
	RECAPDocuments []recapRecord `json:"recap_documents"`
}

type recapRecord struct {
	ID          json.Number `json:"id"`
	AbsoluteURL string      `json:"absolute_url"`
}

// SearchCases queries the RECAP search index and returns hits in ranking order.
func (c *Client) SearchCases(ctx context.Context, params map[string]string) ([]domain.CaseDocument, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: searchPath})
	q := url.Values{}
	q.Set("type", "r")
	for k, v := range params {
		if mapped, ok := queryKeys[k]; ok {
			k = mapped
		}
		if k == "court" {
			v = courtID(v)
		}
		q.Set(k, v)
	}
	endpoint.RawQuery = q.Encode()

	resp, err := c.get(ctx, endpoint.String(), "application/json", true)
	if err != nil {
		return nil, fmt.Errorf("search cases: %w", err)
	}
	defer resp.Body.Close()

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]domain.CaseDocument, 0, len(decoded.Results))
	for _, hit := range decoded.Results {
		doc := domain.CaseDocument{
			CaseName: hit.CaseName,
			DocketID: hit.DocketID.String(),
			URL:      c.absolute(hit.AbsoluteURL),
		}
		if len(hit.RECAPDocuments) > 0 {
			first := hit.RECAPDocuments[0]
			doc.DocumentID = first.ID.String()
			if first.AbsoluteURL != "" {
				doc.URL = c.absolute(first.AbsoluteURL)
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ScrapeDocument downloads a document page and extracts its readable parts.
func (c *Client) ScrapeDocument(ctx context.Context, docURL string) (domain.ScrapedDocument, error) {
	resp, err := c.get(ctx, docURL, "text/html", false)
	if err != nil {
		return domain.ScrapedDocument{}, fmt.Errorf("scrape document: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.ScrapedDocument{}, fmt.Errorf("parse document: %w", err)
	}

	page, err := url.Parse(docURL)
	if err != nil {
		page = c.base
	}
	return extractDocument(doc, page), nil
}

func (c *Client) get(ctx context.Context, target, accept string, auth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("courtlistener returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

func (c *Client) absolute(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

var contentSelectors = []string{"#opinion-content", "#document-text", ".opinion-body", "article", "main"}

func extractDocument(doc *goquery.Document, page *url.URL) domain.ScrapedDocument {
	title := collapse(doc.Find("h1").First().Text())
	if title == "" {
		title = collapse(doc.Find("title").First().Text())
	}

	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	if description == "" {
		description, _ = doc.Find(`meta[property="og:description"]`).First().Attr("content")
	}

	var content string
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		node.Find("script, style, nav").Remove()
		if text := collapse(node.Text()); text != "" {
			content = text
			break
		}
	}
	if content == "" {
		body := doc.Find("body")
		body.Find("script, style, nav, header, footer").Remove()
		content = collapse(body.Text())
	}

	var pdf string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || !strings.HasSuffix(strings.ToLower(ref.Path), ".pdf") {
			return true
		}
		pdf = page.ResolveReference(ref).String()
		return false
	})

	return domain.ScrapedDocument{
		Title:       title,
		Description: collapse(description),
		Content:     content,
		PDFURL:      pdf,
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
