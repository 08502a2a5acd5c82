package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/stage"
	"ContentIngest/internal/telemetry"
)

// Status is the engine's position in a run.
type Status int

const (
	StatusReady Status = iota
	StatusRunning
	StatusHalted
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what a run hands back to the caller.
type Result struct {
	RunID  string
	Status Status
	State  domain.State
	// Path lists the nodes that ran, in order.
	Path []stage.Kind
}

// RunStatus maps the engine outcome onto the ledger status. Halts that
// recorded errors are kept apart from clean early exits.
func (r Result) RunStatus() domain.RunStatus {
	switch r.Status {
	case StatusCompleted:
		return domain.RunCompleted
	case StatusFailed:
		return domain.RunFailed
	default:
		if len(r.State.Errors) > 0 {
			return domain.RunHaltedWithErrors
		}
		return domain.RunHalted
	}
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithIDGenerator replaces the ULID run-id source.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// Engine walks a Graph for one state record at a time. A single Engine may
// serve concurrent runs: it holds no per-run state.
type Engine struct {
	graph  *Graph
	logger *slog.Logger
	tracer trace.Tracer
	newID  func() string
}

// NewEngine binds an engine to a validated graph.
func NewEngine(graph *Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:  graph,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: telemetry.Tracer(),
		newID:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph exposes the workflow the engine runs.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Run executes the workflow from the entry node under a fresh run ID. It
// returns the final record with StatusCompleted or StatusHalted, or a
// *FaultError together with a StatusFailed result carrying the partial record.
func (e *Engine) Run(ctx context.Context, initial domain.State) (Result, error) {
	return e.RunWithID(ctx, "", initial)
}

// RunWithID is Run with a caller-chosen run ID; an empty id generates one.
// The ID identifies the run in results, logs and spans but never enters the
// record, so identical inputs yield identical records.
func (e *Engine) RunWithID(ctx context.Context, runID string, initial domain.State) (Result, error) {
	if runID == "" {
		runID = e.newID()
	}
	if e.graph == nil {
		return Result{RunID: runID, Status: StatusFailed, State: initial}, fmt.Errorf("run %s: graph is not configured", runID)
	}

	state := initial.Clone()

	result := Result{RunID: runID, Status: StatusReady}
	logger := e.logger.With("run_id", runID, "trigger_type", state.TriggerLabel())

	ctx, span := e.tracer.Start(ctx, "ingest.run", trace.WithAttributes(
		attribute.String(telemetry.RunIDKey, runID),
		attribute.String(telemetry.TriggerTypeKey, state.TriggerLabel()),
	))
	defer span.End()

	logger.Info("starting run", "entry", e.graph.entry)
	result.Status = StatusRunning

	node := e.graph.entry
	for {
		if err := ctx.Err(); err != nil {
			return e.fail(span, logger, result, state, node, fmt.Errorf("before node %s: %w", node, err))
		}

		out, err := e.execute(ctx, runID, node, state)
		if err != nil {
			return e.fail(span, logger, result, state, node, err)
		}
		state = out
		result.Path = append(result.Path, node)

		if !state.ShouldContinue {
			if e.graph.leadsToEnd(node) {
				result.Status = StatusCompleted
			} else {
				result.Status = StatusHalted
			}
			return e.finish(span, logger, result, state), nil
		}

		next, err := e.next(node, state)
		if err != nil {
			return e.fail(span, logger, result, state, node, err)
		}
		if next == End {
			result.Status = StatusCompleted
			return e.finish(span, logger, result, state), nil
		}

		logger.Debug("transition", "from", node, "to", next)
		node = next
	}
}

func (e *Engine) execute(ctx context.Context, runID string, node stage.Kind, state domain.State) (domain.State, error) {
	st, ok := e.graph.nodes[node]
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrUnknownNode, node)
	}

	ctx, span := e.tracer.Start(ctx, "ingest.stage."+string(node), trace.WithAttributes(
		attribute.String(telemetry.RunIDKey, runID),
		attribute.String(telemetry.NodeKey, string(node)),
	))
	defer span.End()

	e.logger.Debug("executing stage", "run_id", runID, "node", node)

	// The stage gets its own copy so a fault leaves the accumulated record intact.
	out, err := st.Execute(ctx, state.Clone())
	if err != nil {
		telemetry.SetError(span, err, attribute.String(telemetry.NodeKey, string(node)))
		return state, fmt.Errorf("execute %s: %w", node, err)
	}

	span.SetAttributes(attribute.Bool(telemetry.ContinueKey, out.ShouldContinue))
	return out, nil
}

func (e *Engine) next(node stage.Kind, state domain.State) (stage.Kind, error) {
	ed, ok := e.graph.edges[node]
	if !ok {
		return End, nil
	}
	if !ed.conditional() {
		return ed.to, nil
	}

	picked := ed.router(state)
	if !slices.Contains(ed.candidates, picked) {
		return "", fmt.Errorf("%w: %s -> %q", ErrUnknownRoute, node, picked)
	}
	return picked, nil
}

func (e *Engine) finish(span trace.Span, logger *slog.Logger, result Result, state domain.State) Result {
	result.State = state
	span.SetAttributes(attribute.String(telemetry.StatusKey, result.Status.String()))
	logger.Info("run finished",
		"status", result.Status.String(),
		"last_node", lastNode(result.Path),
		"errors", len(state.Errors),
	)
	return result
}

func (e *Engine) fail(span trace.Span, logger *slog.Logger, result Result, state domain.State, node stage.Kind, err error) (Result, error) {
	result.Status = StatusFailed
	result.State = state
	telemetry.SetError(span, err, attribute.String(telemetry.NodeKey, string(node)))
	logger.Error("run failed", "node", node, "error", err)
	return result, &FaultError{RunID: result.RunID, Node: node, State: state.Clone(), Err: err}
}

func lastNode(path []stage.Kind) stage.Kind {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}
