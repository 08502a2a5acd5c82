package stage

import (
	"context"
	"log/slog"

	"ContentIngest/internal/domain"
)

// FeedDefaults fills in feed parameters the caller left empty.
type FeedDefaults struct {
	URL  string
	Name string
}

// Scheduler validates the trigger and leaves a routing hint for the router.
type Scheduler struct {
	defaults FeedDefaults
	logger   *slog.Logger
}

var _ Stage = (*Scheduler)(nil)

// NewScheduler builds the entry stage.
func NewScheduler(defaults FeedDefaults, log *slog.Logger) *Scheduler {
	if defaults.URL == "" {
		defaults.URL = "https://example.com/feed.rss"
	}
	if defaults.Name == "" {
		defaults.Name = "default-feed"
	}
	return &Scheduler{defaults: defaults, logger: componentLogger(log, KindScheduler)}
}

func (s *Scheduler) Kind() Kind {
	return KindScheduler
}

func (s *Scheduler) Execute(_ context.Context, state domain.State) (domain.State, error) {
	state.CurrentAgent = AgentScheduler

	switch state.TriggerType {
	case domain.TriggerRSS:
		if state.FeedURL == "" {
			state.FeedURL = s.defaults.URL
		}
		if state.FeedName == "" {
			state.FeedName = s.defaults.Name
		}
		state.WorkflowStep = domain.StepRSSAgent
		s.logger.Debug("routing to rss fetch", "feed_url", state.FeedURL, "feed_name", state.FeedName)

	case domain.TriggerAPI:
		state.WorkflowStep = domain.StepAPIAgent
		s.logger.Debug("routing to api fetch")

	case domain.TriggerProQuest:
		state.AddError("ProQuest Agent not implemented")
		state.Halt()
		s.logger.Warn("trigger not implemented", "trigger_type", state.TriggerType)

	case domain.TriggerWebSearch:
		state.AddError("WebSearch Agent not implemented")
		state.Halt()
		s.logger.Warn("trigger not implemented", "trigger_type", state.TriggerType)

	default:
		state.AddError("Unknown trigger_type: " + state.TriggerLabel())
		state.Halt()
		s.logger.Warn("unknown trigger", "trigger_type", state.TriggerLabel())
	}

	return state, nil
}
