package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// ErrUnsupportedFeed is returned when the document is neither RSS nor Atom.
var ErrUnsupportedFeed = errors.New("unsupported feed format")

// document covers RSS 2.0 (<rss><channel><item>), RSS 1.0 (<rdf:RDF><item>)
// and Atom (<feed><entry>) with a single decode.
type document struct {
	XMLName xml.Name
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Items   []rssItem   `xml:"item"`
	Entries []atomEntry `xml:"entry"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"date"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Links     []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// XMLParser turns RSS or Atom bytes into entries in document order.
type XMLParser struct{}

var _ ports.FeedParser = XMLParser{}

// NewXMLParser returns the feed parser.
func NewXMLParser() XMLParser {
	return XMLParser{}
}

// ParseFeed decodes raw and returns the entries. Descriptions are reduced to
// plain text.
func (XMLParser) ParseFeed(ctx context.Context, raw []byte) ([]domain.FeedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("parse feed: empty document")
	}

	var doc document
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	switch strings.ToLower(doc.XMLName.Local) {
	case "rss":
		return fromRSS(doc.Channel.Items), nil
	case "rdf":
		return fromRSS(doc.Items), nil
	case "feed":
		return fromAtom(doc.Entries), nil
	default:
		return nil, fmt.Errorf("parse feed: %w: root <%s>", ErrUnsupportedFeed, doc.XMLName.Local)
	}
}

func fromRSS(items []rssItem) []domain.FeedEntry {
	entries := make([]domain.FeedEntry, 0, len(items))
	for _, item := range items {
		published := item.PubDate
		if published == "" {
			published = item.Date
		}
		entries = append(entries, domain.FeedEntry{
			Title:       strings.TrimSpace(item.Title),
			Description: plainText(item.Description),
			Link:        strings.TrimSpace(item.Link),
			Published:   strings.TrimSpace(published),
		})
	}
	return entries
}

func fromAtom(items []atomEntry) []domain.FeedEntry {
	entries := make([]domain.FeedEntry, 0, len(items))
	for _, item := range items {
		description := item.Summary
		if strings.TrimSpace(description) == "" {
			description = item.Content
		}
		published := item.Published
		if published == "" {
			published = item.Updated
		}
		entries = append(entries, domain.FeedEntry{
			Title:       strings.TrimSpace(item.Title),
			Description: plainText(description),
			Link:        atomHref(item.Links),
			Published:   strings.TrimSpace(published),
		})
	}
	return entries
}

func atomHref(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}

// plainText drops markup and collapses whitespace.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(name) {
				skip++
			}
			sb.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(name) && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

func isHidden(tag []byte) bool {
	switch string(tag) {
	case "script", "style":
		return true
	}
	return false
}
