package courtlistener

import (
	"context"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// Static returns a fixed docket hit and its scraped page. It lets the api
// trigger run without network access or an API token.
type Static struct {
	Docs     []domain.CaseDocument
	Document domain.ScrapedDocument
}

var (
	_ ports.CaseSearcher    = (*Static)(nil)
	_ ports.DocumentScraper = (*Static)(nil)
)

// NewStatic returns the sample Supreme Court insurance case.
func NewStatic() *Static {
	return &Static{
		Docs: []domain.CaseDocument{{
			CaseName:   "State v. Insurance Company",
			DocketID:   "2024-CL-001",
			DocumentID: "doc-12345",
			URL:        "https://courtlistener.com/case/12345",
		}},
		Document: domain.ScrapedDocument{
			Title:       "State v. Insurance Company",
			Description: "Court case 2024-CL-001 filed on 2024-01-15",
			Content:     "This is pre-scraped content from the court document. It contains information about insurance regulations and legal precedents that may impact the industry.",
			PDFURL:      "https://courtlistener.com/pdf/12345.pdf",
		},
	}
}

func (s *Static) SearchCases(ctx context.Context, _ map[string]string) ([]domain.CaseDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.CaseDocument, len(s.Docs))
	copy(out, s.Docs)
	return out, nil
}

func (s *Static) ScrapeDocument(ctx context.Context, _ string) (domain.ScrapedDocument, error) {
	if err := ctx.Err(); err != nil {
		return domain.ScrapedDocument{}, err
	}
	return s.Document, nil
}
