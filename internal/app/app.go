package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ContentIngest/internal/config"
	"ContentIngest/internal/domain"
	"ContentIngest/internal/infrastructure/courtlistener"
	"ContentIngest/internal/infrastructure/feed"
	"ContentIngest/internal/infrastructure/llm"
	"ContentIngest/internal/infrastructure/ml"
	"ContentIngest/internal/infrastructure/scheduler"
	"ContentIngest/internal/infrastructure/storage"
	"ContentIngest/internal/infrastructure/telegram"
	"ContentIngest/internal/infrastructure/weburl"
	"ContentIngest/internal/logging"
	"ContentIngest/internal/ports"
	"ContentIngest/internal/stage"
	"ContentIngest/internal/usecase"
	"ContentIngest/internal/workflow"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	graph    *workflow.Graph
	pipeline *usecase.Pipeline
	closers  []func(context.Context) error
}

// classifier is what every classification backend provides.
type classifier interface {
	ports.ContentClassifier
	ports.ConcernFilter
}

// New builds the application from configuration. Close releases the
// connections it opens.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	fetcher, parser := a.feedBackend()

	cases, err := a.caseBackend()
	if err != nil {
		return nil, err
	}

	model := a.classifierBackend()

	objects, err := a.objectStore(ctx)
	if err != nil {
		a.closeQuietly(ctx)
		return nil, err
	}

	ledger, err := a.runLedger(ctx)
	if err != nil {
		a.closeQuietly(ctx)
		return nil, err
	}

	var notifier ports.Notifier
	tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	if tg.Configured() {
		notifier = tg
	}

	graph, err := workflow.NewIngestGraph(workflow.IngestStages{
		Scheduler: stage.NewScheduler(stage.FeedDefaults{URL: cfg.Feed.URL, Name: cfg.Feed.Name}, baseLogger),
		RSSFetch: stage.NewRSSFetch(stage.RSSFetchDeps{
			Fetcher:  fetcher,
			Parser:   parser,
			URLs:     weburl.Validator{},
			Concerns: model,
			Domains:  weburl.Extractor{},
		}, baseLogger),
		APIFetch: stage.NewAPIFetch(stage.APIFetchDeps{Search: cases, Scrape: cases}, baseLogger),
		Classify: stage.NewClassify(model, baseLogger),
		Store: stage.NewStore(objects, stage.StoreConfig{
			Bucket:   cfg.Storage.Bucket,
			Location: cfg.StorageLocation(),
		}, baseLogger),
	})
	if err != nil {
		a.closeQuietly(ctx)
		return nil, fmt.Errorf("build workflow: %w", err)
	}
	a.graph = graph

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Engine:   workflow.NewEngine(graph, workflow.WithLogger(baseLogger.With("component", "engine"))),
		Ledger:   ledger,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// Graph returns the compiled workflow.
func (a *Application) Graph() *workflow.Graph {
	return a.graph
}

// Run performs one batch invocation.
func (a *Application) Run(ctx context.Context, req usecase.Request) ([]usecase.Report, error) {
	return a.pipeline.Run(ctx, req)
}

// RecentRuns reads the run ledger.
func (a *Application) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	return a.pipeline.RecentRuns(ctx, limit)
}

// Schedule runs the configured cron jobs until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.Location(), a.logger)

	jobs := make([]usecase.Job, 0, len(a.cfg.Scheduler.Jobs))
	for _, j := range a.cfg.Scheduler.Jobs {
		jobs = append(jobs, usecase.Job{Trigger: j.Trigger, Cron: j.Cron})
	}
	if len(jobs) == 0 {
		return errors.New("schedule: no jobs configured")
	}

	sched := usecase.NewScheduler(driver, a.pipeline, jobs,
		usecase.Request{FeedURL: a.cfg.Feed.URL, FeedName: a.cfg.Feed.Name},
		a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler running", "jobs", len(jobs), "next", driver.Next())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

// Close releases every resource New opened, in reverse order.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) closeQuietly(ctx context.Context) {
	if err := a.Close(ctx); err != nil {
		a.logger.Warn("release resources", "error", err)
	}
}

func (a *Application) feedBackend() (ports.FeedFetcher, ports.FeedParser) {
	if a.cfg.Feed.Backend == config.BackendHTTP {
		return feed.NewHTTPFetcher(&http.Client{Timeout: a.cfg.Feed.Timeout}), feed.NewXMLParser()
	}
	static := feed.NewStatic()
	return static, static
}

type caseBackend interface {
	ports.CaseSearcher
	ports.DocumentScraper
}

func (a *Application) caseBackend() (caseBackend, error) {
	cl := a.cfg.CourtListener
	if cl.Backend != config.BackendHTTP {
		return courtlistener.NewStatic(), nil
	}
	client, err := courtlistener.NewClient(cl.BaseURL, cl.Token, &http.Client{Timeout: a.cfg.Feed.Timeout})
	if err != nil {
		return nil, fmt.Errorf("build courtlistener client: %w", err)
	}
	return client, nil
}

func (a *Application) classifierBackend() classifier {
	switch a.cfg.Classifier.Backend {
	case config.BackendChatGPT:
		return llm.NewChatGPTClient(a.cfg.ChatGPT)
	case config.BackendML:
		return ml.NewClient(a.cfg.ML.InferenceURL, a.cfg.ML.APIKey)
	default:
		return ml.NewKeywordModel(a.cfg.Classifier.Keywords...)
	}
}

func (a *Application) objectStore(ctx context.Context) (ports.ObjectStore, error) {
	st := a.cfg.Storage
	if st.Backend == config.BackendRedis {
		client, err := storage.DialRedis(ctx, st.Redis.Addr, st.Redis.Password, st.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return storage.NewRedisObjectStore(client, st.Redis.TTL), nil
	}
	return storage.NewFSObjectStore(st.Root), nil
}

func (a *Application) runLedger(ctx context.Context) (ports.RunRepository, error) {
	lc := a.cfg.Ledger
	if lc.Driver == config.LedgerNone {
		return nil, nil
	}
	if lc.Driver == storage.DriverSQLite {
		if dir := filepath.Dir(lc.DSN); dir != "." && dir != "" && lc.DSN != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
	}
	repo, err := storage.OpenRunRepository(ctx, lc.Driver, lc.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return repo.Close() })
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
