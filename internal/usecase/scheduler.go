package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ContentIngest/internal/ports"
)

// Job binds a trigger to a cron expression.
type Job struct {
	Trigger string
	Cron    string
}

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	jobs     []Job
	defaults Request
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs. defaults
// carries the feed parameters used for every scheduled rss run.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, jobs []Job, defaults Request, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{driver: driver, pipeline: pipeline, jobs: jobs, defaults: defaults, logger: log}
}

// Start registers every job with the driver and starts it. Scheduled runs
// share ctx, so cancelling it also cancels in-flight runs.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	for _, job := range s.jobs {
		req := s.defaults
		req.Trigger = job.Trigger
		if err := s.driver.Add(job.Cron, s.runner(ctx, req)); err != nil {
			return fmt.Errorf("schedule %s at %q: %w", job.Trigger, job.Cron, err)
		}
		s.logger.Info("job scheduled", "trigger_type", job.Trigger, "cron", job.Cron)
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) runner(ctx context.Context, req Request) func(time.Time) {
	return func(fired time.Time) {
		if ctx.Err() != nil {
			return
		}
		s.logger.Info("scheduled run fired", "trigger_type", req.Trigger, "at", fired)
		reports, err := s.pipeline.Run(ctx, req)
		if err != nil {
			s.logger.Error("scheduled run failed", "trigger_type", req.Trigger, "runs", len(reports), "error", err)
		}
	}
}
