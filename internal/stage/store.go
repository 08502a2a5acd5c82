package stage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

const payloadContentLimit = 500

// StoreConfig configures where documents land.
type StoreConfig struct {
	Bucket   string
	Location *time.Location
	// Now is the clock used for key derivation; defaults to time.Now.
	Now func() time.Time
}

// Store persists the classified document. It always ends the run.
type Store struct {
	objects ports.ObjectStore
	cfg     StoreConfig
	logger  *slog.Logger
}

var _ Stage = (*Store)(nil)

// NewStore builds the terminal storage stage.
func NewStore(objects ports.ObjectStore, cfg StoreConfig, log *slog.Logger) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Store{objects: objects, cfg: cfg, logger: componentLogger(log, KindStore)}
}

func (s *Store) Kind() Kind {
	return KindStore
}

func (s *Store) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	key := BuildStorageKey(state.Source, s.cfg.Now().In(s.cfg.Location))
	payload := buildPayload(state)

	saved, err := s.objects.Put(ctx, s.cfg.Bucket, key, payload)
	if err != nil {
		return state, fmt.Errorf("put object %s/%s: %w", s.cfg.Bucket, key, err)
	}

	state.S3Key = domain.Ptr(key)
	state.S3Bucket = domain.Ptr(s.cfg.Bucket)
	state.Saved = saved
	state.CurrentAgent = AgentStorage
	state.ShouldContinue = false

	s.logger.Info("document stored", "bucket", s.cfg.Bucket, "key", key, "saved", saved)
	return state, nil
}

func buildPayload(state domain.State) domain.StoredDocument {
	metadata := state.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return domain.StoredDocument{
		URL:            state.URL,
		Title:          domain.Deref(state.Title),
		Content:        truncateRunes(domain.Deref(state.Content), payloadContentLimit),
		Classification: state.Classification,
		Metadata:       metadata,
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
