package domain

import (
	"slices"
	"time"
)

// FeedEntry is a single item parsed from an RSS or Atom feed.
type FeedEntry struct {
	Title       string
	Description string
	Link        string
	Published   string
}

// RawFeed carries fetched feed bytes together with the host they came from.
type RawFeed struct {
	Content []byte
	URL     string
	Domain  string
}

// CaseDocument is a search hit returned by the case-law API.
type CaseDocument struct {
	CaseName   string `json:"case_name"`
	DocketID   string `json:"docket_id"`
	DocumentID string `json:"document_id"`
	URL        string `json:"url"`
}

// ScrapedDocument holds the text extracted from a case document page.
type ScrapedDocument struct {
	Title       string
	Description string
	Content     string
	PDFURL      string
}

// Classification is the structured result of content classification.
type Classification struct {
	Tag        string   `json:"tag"`
	Risks      []string `json:"risks"`
	NAICSCodes []string `json:"naics_codes"`
	Summary    string   `json:"summary"`
}

// Clone copies the slices so the result can be mutated independently.
func (c Classification) Clone() Classification {
	c.Risks = slices.Clone(c.Risks)
	c.NAICSCodes = slices.Clone(c.NAICSCodes)
	return c
}

// StoredDocument is the JSON payload written to object storage.
type StoredDocument struct {
	URL            string          `json:"url"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Classification *Classification `json:"classification"`
	Metadata       map[string]any  `json:"metadata"`
}

// RunStatus enumerates terminal outcomes recorded for a run.
type RunStatus string

const (
	RunCompleted        RunStatus = "completed"
	RunHalted           RunStatus = "halted"
	RunHaltedWithErrors RunStatus = "halted_with_errors"
	RunFailed           RunStatus = "failed"
)

// RunRecord is the summary of one pipeline run persisted to the ledger.
type RunRecord struct {
	RunID       string
	TriggerType string
	Status      RunStatus
	Source      string
	URL         string
	S3Bucket    string
	S3Key       string
	Saved       bool
	Errors      []string
	Fault       string
	StartedAt   time.Time
	FinishedAt  time.Time
}
