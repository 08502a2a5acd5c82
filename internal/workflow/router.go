package workflow

import (
	"fmt"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/stage"
)

// RouteSource picks the fetch stage after the scheduler. Unrecognized steps
// fall back to the RSS fetcher; the scheduler halts those runs before the
// router is consulted, so the fallback is not expected to fire.
func RouteSource(state domain.State) stage.Kind {
	switch state.WorkflowStep {
	case domain.StepRSSAgent:
		return stage.KindRSSFetch
	case domain.StepAPIAgent:
		return stage.KindAPIFetch
	default:
		return stage.KindRSSFetch
	}
}

// IngestStages groups the concrete stages of the ingestion workflow.
type IngestStages struct {
	Scheduler stage.Stage
	RSSFetch  stage.Stage
	APIFetch  stage.Stage
	Classify  stage.Stage
	Store     stage.Stage
}

// NewIngestGraph wires scheduler => {rss_fetch | api_fetch} -> classify -> store -> end.
func NewIngestGraph(s IngestStages) (*Graph, error) {
	g, err := NewBuilder().
		AddNode(s.Scheduler).
		AddNode(s.RSSFetch).
		AddNode(s.APIFetch).
		AddNode(s.Classify).
		AddNode(s.Store).
		SetEntry(stage.KindScheduler).
		AddConditionalEdge(stage.KindScheduler, RouteSource, stage.KindRSSFetch, stage.KindAPIFetch).
		AddEdge(stage.KindRSSFetch, stage.KindClassify).
		AddEdge(stage.KindAPIFetch, stage.KindClassify).
		AddEdge(stage.KindClassify, stage.KindStore).
		AddEdge(stage.KindStore, End).
		Build()
	if err != nil {
		return nil, fmt.Errorf("ingest graph: %w", err)
	}
	return g, nil
}
