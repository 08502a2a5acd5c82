package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentIngest/internal/config"
	"ContentIngest/internal/domain"
	"ContentIngest/internal/stage"
	"ContentIngest/internal/usecase"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.Storage.Root = filepath.Join(dir, "objects")
	cfg.Ledger.DSN = filepath.Join(dir, "ledger", "runs.db")
	cfg.Notifications.Telegram = config.TelegramConfig{}
	return cfg
}

func TestApplicationRunsOfflineDefaults(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	application, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close(ctx) })

	reports, err := application.Run(ctx, usecase.Request{Trigger: usecase.TriggerAll})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	for _, r := range reports {
		require.Equal(t, domain.RunCompleted, r.Status, r.Trigger)
		require.True(t, r.State.Saved)

		raw, err := os.ReadFile(filepath.Join(cfg.Storage.Root, cfg.Storage.Bucket, domain.Deref(r.State.S3Key)))
		require.NoError(t, err)

		var doc domain.StoredDocument
		require.NoError(t, json.Unmarshal(raw, &doc))
		assert.Equal(t, r.State.URL, doc.URL)
		require.NotNil(t, doc.Classification)
		assert.Equal(t, "Current", doc.Classification.Tag)
	}

	runs, err := application.RecentRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestApplicationGraphShape(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Ledger.Driver = config.LedgerNone

	application, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close(ctx) })

	g := application.Graph()
	assert.Equal(t, stage.KindScheduler, g.Entry())
	assert.ElementsMatch(t, stage.Kinds(), g.Nodes())

	_, err = application.RecentRuns(ctx, 1)
	require.ErrorIs(t, err, usecase.ErrNoLedger)
}

func TestApplicationScheduleStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.Driver = config.LedgerNone

	application, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Schedule(ctx) }()

	cancel()
	require.NoError(t, <-done)
}
