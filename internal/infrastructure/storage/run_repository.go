package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// Supported ledger drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	runsTable = "pipeline_runs"
	// fixed width so text ordering matches time ordering
	timeLayout        = "2006-01-02T15:04:05.000000000Z07:00"
	defaultRecentRuns = 20
)

var runColumns = []string{
	"run_id", "trigger_type", "status", "source", "url",
	"s3_bucket", "s3_key", "saved", "errors", "fault",
	"started_at", "finished_at",
}

// RunRepository records one row per pipeline run.
type RunRepository struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

var _ ports.RunRepository = (*RunRepository)(nil)

// OpenRunRepository opens the database for driver and dsn.
func OpenRunRepository(ctx context.Context, driver, dsn string) (*RunRepository, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" on a single connection
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite pragma: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s ledger: %w", driver, err)
	}

	return NewRunRepository(db, driver), nil
}

// NewRunRepository wires an existing sql.DB.
func NewRunRepository(db *sql.DB, driver string) *RunRepository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &RunRepository{
		db:      db,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// Close releases the database handle.
func (r *RunRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the runs table and its index when missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
			run_id       TEXT PRIMARY KEY,
			trigger_type TEXT NOT NULL,
			status       TEXT NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			url          TEXT NOT NULL DEFAULT '',
			s3_bucket    TEXT NOT NULL DEFAULT '',
			s3_key       TEXT NOT NULL DEFAULT '',
			saved        BOOLEAN NOT NULL DEFAULT FALSE,
			errors       TEXT NOT NULL DEFAULT '[]',
			fault        TEXT NOT NULL DEFAULT '',
			started_at   TEXT NOT NULL,
			finished_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + runsTable + `_started_at ON ` + runsTable + ` (started_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

// SaveRun upserts the run summary keyed by run id.
func (r *RunRepository) SaveRun(ctx context.Context, run domain.RunRecord) error {
	if r.db == nil {
		return nil
	}
	if run.RunID == "" {
		return fmt.Errorf("save run: empty run id")
	}

	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	encoded, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode run errors: %w", err)
	}

	query := r.builder.Insert(runsTable).
		Columns(runColumns...).
		Values(
			run.RunID, run.TriggerType, string(run.Status), run.Source, run.URL,
			run.S3Bucket, run.S3Key, run.Saved, string(encoded), run.Fault,
			formatTime(run.StartedAt), formatTime(run.FinishedAt),
		).
		Suffix(`ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			source = EXCLUDED.source,
			url = EXCLUDED.url,
			s3_bucket = EXCLUDED.s3_bucket,
			s3_key = EXCLUDED.s3_key,
			saved = EXCLUDED.saved,
			errors = EXCLUDED.errors,
			fault = EXCLUDED.fault,
			finished_at = EXCLUDED.finished_at`)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("upsert run %s: %w", run.RunID, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRecentRuns
	}

	query := r.builder.Select(runColumns...).
		From(runsTable).
		OrderBy("started_at DESC", "run_id DESC").
		Limit(uint64(limit))

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return runs, nil
}

func scanRun(rows *sql.Rows) (domain.RunRecord, error) {
	var (
		run               domain.RunRecord
		status            string
		errs              string
		started, finished string
	)
	if err := rows.Scan(
		&run.RunID, &run.TriggerType, &status, &run.Source, &run.URL,
		&run.S3Bucket, &run.S3Key, &run.Saved, &errs, &run.Fault,
		&started, &finished,
	); err != nil {
		return domain.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
		return domain.RunRecord{}, fmt.Errorf("decode run errors: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return domain.RunRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return domain.RunRecord{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
