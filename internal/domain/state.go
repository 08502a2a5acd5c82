package domain

import (
	"maps"
	"slices"
	"strings"
)

// Workflow step hints written by the scheduler stage.
const (
	StepRSSAgent = "rss_agent"
	StepAPIAgent = "api_agent"
)

// State is the record threaded through every stage of a single run.
// It is passed by value; a stage owns it exclusively until it returns.
type State struct {
	TriggerType TriggerType `json:"trigger_type"`
	TriggerRaw  string      `json:"trigger_raw,omitempty"`
	FeedURL     string      `json:"feed_url,omitempty"`
	FeedName    string      `json:"feed_name,omitempty"`

	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
	Domain string `json:"domain"`

	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Content     *string        `json:"content,omitempty"`
	Metadata    map[string]any `json:"metadata"`

	Classification *Classification `json:"classification,omitempty"`

	S3Bucket *string `json:"s3_bucket,omitempty"`
	S3Key    *string `json:"s3_key,omitempty"`
	Saved    bool    `json:"saved"`

	CurrentAgent   string   `json:"current_agent"`
	WorkflowStep   string   `json:"workflow_step"`
	Errors         []string `json:"errors"`
	ShouldContinue bool     `json:"should_continue"`
}

// NewState builds the initial record for a trigger. The raw value is kept
// so error messages can quote what the caller actually supplied.
func NewState(trigger string) State {
	raw := strings.ToLower(strings.TrimSpace(trigger))
	return State{
		TriggerType:    ParseTriggerType(raw),
		TriggerRaw:     raw,
		Metadata:       map[string]any{},
		Errors:         []string{},
		ShouldContinue: true,
	}
}

// AddError appends a message; entries are never removed.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Halt stops the run after the current stage.
func (s *State) Halt() {
	s.ShouldContinue = false
}

// TriggerLabel returns the trigger as supplied by the caller.
func (s State) TriggerLabel() string {
	if s.TriggerRaw != "" {
		return s.TriggerRaw
	}
	return string(s.TriggerType)
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	out := s
	out.Title = clonePtr(s.Title)
	out.Description = clonePtr(s.Description)
	out.Content = clonePtr(s.Content)
	out.S3Bucket = clonePtr(s.S3Bucket)
	out.S3Key = clonePtr(s.S3Key)
	out.Metadata = maps.Clone(s.Metadata)
	if out.Metadata == nil {
		out.Metadata = map[string]any{}
	}
	out.Errors = slices.Clone(s.Errors)
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if s.Classification != nil {
		c := s.Classification.Clone()
		out.Classification = &c
	}
	return out
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
