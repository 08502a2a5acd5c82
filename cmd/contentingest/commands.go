package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"ContentIngest/internal/app"
	"ContentIngest/internal/config"
	"ContentIngest/internal/domain"
	"ContentIngest/internal/logging"
	"ContentIngest/internal/telemetry"
	"ContentIngest/internal/usecase"
	"ContentIngest/internal/workflow"
)

type session struct {
	cfg      config.Config
	logger   *slog.Logger
	app      *app.Application
	shutdown func()
}

// bootstrap loads configuration, builds the logger and optional tracing,
// and wires the application. The returned shutdown must always be called.
func bootstrap(ctx context.Context, command *cli.Command) (*session, error) {
	cfg, err := config.LoadFile(command.String("config"))
	if err != nil {
		return nil, err
	}
	if lvl := command.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if format := command.String("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	rt := &session{cfg: cfg, logger: logger, shutdown: func() {}}

	var stopTracing func(context.Context) error
	if cfg.Tracing.Enabled {
		stopTracing, err = telemetry.Setup(ctx, cfg.Tracing.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		if stopTracing != nil {
			_ = stopTracing(context.WithoutCancel(ctx))
		}
		return nil, err
	}
	rt.app = application

	rt.shutdown = func() {
		closeCtx := context.WithoutCancel(ctx)
		if err := application.Close(closeCtx); err != nil {
			logger.Error("failed to close application", "error", err)
		}
		if stopTracing != nil {
			if err := stopTracing(closeCtx); err != nil {
				logger.Error("failed to shutdown tracer provider", "error", err)
			}
		}
	}
	return rt, nil
}

// NewRunCommand executes one batch run. The worst run status is written to
// exitCode.
func NewRunCommand(exitCode *int) *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the ingest workflow once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "trigger",
				Aliases: []string{"t"},
				Usage:   "Trigger type (rss, api, proquest, websearch, all)",
				Value:   "rss",
				Sources: cli.EnvVars("TRIGGER_TYPE"),
			},
			&cli.StringFlag{
				Name:  "feed-url",
				Usage: "Feed to read for the rss trigger; defaults to the configured feed",
			},
			&cli.StringFlag{
				Name:  "feed-name",
				Usage: "Feed label recorded with rss documents",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := bootstrap(ctx, command)
			if err != nil {
				return err
			}
			defer rt.shutdown()

			req := usecase.Request{
				Trigger:  command.String("trigger"),
				FeedURL:  command.String("feed-url"),
				FeedName: command.String("feed-name"),
			}
			if req.FeedURL == "" {
				req.FeedURL = rt.cfg.Feed.URL
			}
			if req.FeedName == "" {
				req.FeedName = rt.cfg.Feed.Name
			}

			reports, runErr := rt.app.Run(ctx, req)
			fmt.Println(renderReports(reports))

			for _, r := range reports {
				if code := usecase.ExitCode(r.Status); code > *exitCode {
					*exitCode = code
				}
			}
			if runErr != nil {
				if fault, ok := workflow.AsFault(runErr); ok {
					rt.logger.Error("run failed", "run_id", fault.RunID, "node", fault.Node, "error", fault.Err)
				} else {
					return runErr
				}
			}
			return nil
		},
	}
}

func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the configured cron jobs until interrupted",
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := bootstrap(ctx, command)
			if err != nil {
				return err
			}
			defer rt.shutdown()

			return rt.app.Schedule(ctx)
		},
	}
}

func NewGraphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Print the workflow nodes and edges",
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := bootstrap(ctx, command)
			if err != nil {
				return err
			}
			defer rt.shutdown()

			fmt.Println(renderGraph(rt.app.Graph()))
			return nil
		},
	}
}

func NewRunsCommand() *cli.Command {
	return &cli.Command{
		Name:    "runs",
		Aliases: []string{"ls"},
		Usage:   "List recent runs from the ledger",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := bootstrap(ctx, command)
			if err != nil {
				return err
			}
			defer rt.shutdown()

			runs, err := rt.app.RecentRuns(ctx, int(command.Int("limit")))
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			fmt.Println(renderRuns(runs))
			return nil
		},
	}
}

func renderReports(reports []usecase.Report) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		tag := ""
		if r.State.Classification != nil {
			tag = r.State.Classification.Tag
		}
		rows = append(rows, []string{
			r.RunID,
			r.Trigger,
			string(r.Status),
			r.State.Source,
			r.State.URL,
			domain.Deref(r.State.Title),
			tag,
			domain.Deref(r.State.S3Key),
			strconv.FormatBool(r.State.Saved),
			strings.Join(r.State.Errors, "; "),
		})
	}
	return renderTable([]column{
		col("Run ID"),
		col("Trigger"),
		col("Status"),
		col("Source"),
		col("URL").wrap(48),
		col("Title").wrap(40),
		col("Tag"),
		col("Key").wrap(48),
		col("Saved"),
		col("Errors").wrap(40),
	}, rows)
}

func renderRuns(runs []domain.RunRecord) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.RunID,
			r.TriggerType,
			string(r.Status),
			r.Source,
			strconv.FormatBool(r.Saved),
			strconv.Itoa(len(r.Errors)),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
		})
	}
	return renderTable([]column{
		col("Started"),
		col("Run ID"),
		col("Trigger"),
		col("Status"),
		col("Source"),
		col("Saved"),
		col("Errors").right(),
		col("Took").right(),
	}, rows)
}

func renderGraph(g *workflow.Graph) string {
	rows := make([][]string, 0, len(g.Nodes()))
	for _, e := range g.Edges() {
		kind := "direct"
		if e.Conditional {
			kind = "conditional"
		}
		targets := make([]string, 0, len(e.To))
		for _, to := range e.To {
			if to == workflow.End {
				targets = append(targets, "END")
				continue
			}
			targets = append(targets, string(to))
		}
		from := string(e.From)
		if e.From == g.Entry() {
			from += " (entry)"
		}
		rows = append(rows, []string{from, strings.Join(targets, " | "), kind})
	}
	return renderTable([]column{col("From"), col("To"), col("Edge")}, rows)
}
