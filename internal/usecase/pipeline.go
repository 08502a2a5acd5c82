package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
	"ContentIngest/internal/stage"
	"ContentIngest/internal/workflow"
)

// TriggerAll runs the rss and api triggers back to back.
const TriggerAll = "all"

// Request describes one batch invocation.
type Request struct {
	Trigger  string
	FeedURL  string
	FeedName string
}

// Report is the outcome of a single engine run as seen by operators.
type Report struct {
	RunID      string
	Trigger    string
	Status     domain.RunStatus
	State      domain.State
	Path       []stage.Kind
	Fault      error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Record converts the report into a ledger row.
func (r Report) Record() domain.RunRecord {
	rec := domain.RunRecord{
		RunID:       r.RunID,
		TriggerType: r.Trigger,
		Status:      r.Status,
		Source:      r.State.Source,
		URL:         r.State.URL,
		S3Bucket:    domain.Deref(r.State.S3Bucket),
		S3Key:       domain.Deref(r.State.S3Key),
		Saved:       r.State.Saved,
		Errors:      append([]string(nil), r.State.Errors...),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
	if r.Fault != nil {
		rec.Fault = r.Fault.Error()
	}
	return rec
}

// ExitCode maps a run status to a process exit code: 0 for completed runs
// and clean halts, 1 for faults, 2 for halts that recorded errors.
func ExitCode(status domain.RunStatus) int {
	switch status {
	case domain.RunFailed:
		return 1
	case domain.RunHaltedWithErrors:
		return 2
	default:
		return 0
	}
}

// PipelineDeps wires the engine with its run-level side channels.
type PipelineDeps struct {
	Engine   *workflow.Engine
	Ledger   ports.RunRepository
	Notifier ports.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Pipeline runs the ingest workflow and records each outcome.
type Pipeline struct {
	engine   *workflow.Engine
	ledger   ports.RunRepository
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		engine:   deps.Engine,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		logger:   logger,
		now:      now,
	}
}

// Run executes req. For TriggerAll it runs rss then api and stops at the
// first fault. Reports are returned for every run that started; the error
// is the fault of the last one, if any.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]Report, error) {
	if p.engine == nil {
		return nil, errors.New("pipeline: engine is not configured")
	}

	triggers := []string{req.Trigger}
	if strings.EqualFold(strings.TrimSpace(req.Trigger), TriggerAll) {
		triggers = []string{string(domain.TriggerRSS), string(domain.TriggerAPI)}
	}

	reports := make([]Report, 0, len(triggers))
	for _, trigger := range triggers {
		one := req
		one.Trigger = trigger
		report, err := p.RunOnce(ctx, one)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// RunOnce executes a single trigger.
func (p *Pipeline) RunOnce(ctx context.Context, req Request) (Report, error) {
	initial := domain.NewState(req.Trigger)
	if initial.TriggerType == domain.TriggerRSS {
		initial.FeedURL = req.FeedURL
		initial.FeedName = req.FeedName
	}

	started := p.now()
	res, runErr := p.engine.Run(ctx, initial)
	report := Report{
		RunID:      res.RunID,
		Trigger:    initial.TriggerLabel(),
		Status:     res.RunStatus(),
		State:      res.State,
		Path:       res.Path,
		Fault:      runErr,
		StartedAt:  started,
		FinishedAt: p.now(),
	}

	log := p.logger.With("run_id", report.RunID, "trigger_type", report.Trigger)
	log.Info("run recorded",
		"status", report.Status,
		"source", report.State.Source,
		"saved", report.State.Saved,
		"errors", len(report.State.Errors),
	)

	// Ledger and alert failures are logged; they never replace the run outcome.
	// A cancelled ctx still gets its ledger row.
	sideCtx := context.WithoutCancel(ctx)
	if p.ledger != nil && report.RunID != "" {
		if err := p.ledger.SaveRun(sideCtx, report.Record()); err != nil {
			log.Error("save run to ledger", "error", err)
		}
	}
	if p.notifier != nil && needsAlert(report.Status) {
		if err := p.notifier.PublishAlert(sideCtx, alertMessage(report)); err != nil {
			log.Warn("publish alert", "error", err)
		}
	}

	return report, runErr
}

// RecentRuns lists ledger rows, newest first.
func (p *Pipeline) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if p.ledger == nil {
		return nil, ErrNoLedger
	}
	runs, err := p.ledger.RecentRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ErrNoLedger is returned when run history is requested without a ledger.
var ErrNoLedger = errors.New("run ledger is disabled")

func needsAlert(status domain.RunStatus) bool {
	return status == domain.RunFailed || status == domain.RunHaltedWithErrors
}

func alertMessage(r Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "content-ingest run %s: %s\n", r.RunID, r.Status)
	fmt.Fprintf(&sb, "trigger: %s\n", r.Trigger)
	if len(r.Path) > 0 {
		fmt.Fprintf(&sb, "last stage: %s\n", r.Path[len(r.Path)-1])
	}
	if r.State.URL != "" {
		fmt.Fprintf(&sb, "url: %s\n", r.State.URL)
	}
	for _, e := range r.State.Errors {
		fmt.Fprintf(&sb, "error: %s\n", e)
	}
	if r.Fault != nil {
		fmt.Fprintf(&sb, "fault: %v\n", r.Fault)
	}
	return strings.TrimRight(sb.String(), "\n")
}
