package stage

import (
	"context"
	"fmt"
	"log/slog"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// Classify attaches the classifier's verdict to the record.
type Classify struct {
	classifier ports.ContentClassifier
	logger     *slog.Logger
}

var _ Stage = (*Classify)(nil)

// NewClassify builds the classification stage.
func NewClassify(classifier ports.ContentClassifier, log *slog.Logger) *Classify {
	return &Classify{classifier: classifier, logger: componentLogger(log, KindClassify)}
}

func (c *Classify) Kind() Kind {
	return KindClassify
}

func (c *Classify) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	content := domain.Deref(state.Content)
	from := state.CurrentAgent

	result, err := c.classifier.Classify(ctx, content)
	if err != nil {
		return state, fmt.Errorf("classify content: %w", err)
	}

	state.Classification = &result
	state.CurrentAgent = AgentClassification
	state.ShouldContinue = true

	c.logger.Debug("content classified",
		"received_from", from,
		"tag", result.Tag,
		"risks", len(result.Risks),
		"naics", len(result.NAICSCodes),
	)
	return state, nil
}
