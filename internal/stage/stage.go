// Package stage holds the units of pipeline work. Every stage receives the
// run's state record, performs its collaborator calls and returns the
// updated record. Business outcomes are recorded in the record itself; a
// returned error always means a collaborator fault.
package stage

import (
	"context"
	"io"
	"log/slog"

	"ContentIngest/internal/domain"
)

// Kind is the closed set of stage variants. Values double as graph node names.
type Kind string

const (
	KindScheduler Kind = "scheduler"
	KindRSSFetch  Kind = "rss_fetch"
	KindAPIFetch  Kind = "api_fetch"
	KindClassify  Kind = "classify"
	KindStore     Kind = "store"
)

// Kinds lists every variant in pipeline order.
func Kinds() []Kind {
	return []Kind{KindScheduler, KindRSSFetch, KindAPIFetch, KindClassify, KindStore}
}

func (k Kind) String() string {
	return string(k)
}

// Agent names written to State.CurrentAgent when a stage completes.
const (
	AgentScheduler      = "scheduler"
	AgentRSS            = "rss_agent"
	AgentAPI            = "api_agent"
	AgentClassification = "classification"
	AgentStorage        = "storage"
)

// Stage is one unit of pipeline work.
type Stage interface {
	Kind() Kind
	Execute(ctx context.Context, state domain.State) (domain.State, error)
}

func componentLogger(log *slog.Logger, kind Kind) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log.With("stage", string(kind))
}
