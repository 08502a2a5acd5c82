package ml

import (
	"context"
	"strings"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// DefaultKeywords flag an entry as relevant to insurers.
var DefaultKeywords = []string{"insurance", "risk", "regulation", "climate", "legal"}

// KeywordModel is a deterministic stand-in for the hosted models. It needs
// no network and always yields the same classification.
type KeywordModel struct {
	keywords []string
	result   domain.Classification
}

var (
	_ ports.ContentClassifier = (*KeywordModel)(nil)
	_ ports.ConcernFilter     = (*KeywordModel)(nil)
)

// NewKeywordModel returns a model matching keywords case-insensitively.
// An empty list selects DefaultKeywords.
func NewKeywordModel(keywords ...string) *KeywordModel {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &KeywordModel{
		keywords: lowered,
		result: domain.Classification{
			Tag:        "Current",
			Risks:      []string{"Climate Risk", "Regulatory Compliance"},
			NAICSCodes: []string{"524126", "524113"},
			Summary:    "Article discusses insurance regulations related to climate risk.",
		},
	}
}

// HasConcern reports whether title or description mention any keyword.
func (m *KeywordModel) HasConcern(ctx context.Context, title, description string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	text := strings.ToLower(title + " " + description)
	for _, k := range m.keywords {
		if strings.Contains(text, k) {
			return true, nil
		}
	}
	return false, nil
}

// Classify returns the canned classification used for offline runs.
func (m *KeywordModel) Classify(ctx context.Context, _ string) (domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return domain.Classification{}, err
	}
	return m.result.Clone(), nil
}
