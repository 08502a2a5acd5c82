package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/stage"
)

type funcStage struct {
	kind stage.Kind
	fn   func(ctx context.Context, s domain.State) (domain.State, error)
}

func (f funcStage) Kind() stage.Kind { return f.kind }

func (f funcStage) Execute(ctx context.Context, s domain.State) (domain.State, error) {
	if f.fn == nil {
		s.CurrentAgent = string(f.kind)
		return s, nil
	}
	return f.fn(ctx, s)
}

func noop(kind stage.Kind) funcStage {
	return funcStage{kind: kind}
}

func TestNewIngestGraph(t *testing.T) {
	g, err := NewIngestGraph(IngestStages{
		Scheduler: noop(stage.KindScheduler),
		RSSFetch:  noop(stage.KindRSSFetch),
		APIFetch:  noop(stage.KindAPIFetch),
		Classify:  noop(stage.KindClassify),
		Store:     noop(stage.KindStore),
	})
	require.NoError(t, err)

	assert.Equal(t, stage.KindScheduler, g.Entry())
	assert.Equal(t, stage.Kinds(), g.Nodes())

	edges := g.Edges()
	require.Len(t, edges, 5)
	assert.Equal(t, Edge{From: stage.KindScheduler, To: []stage.Kind{stage.KindRSSFetch, stage.KindAPIFetch}, Conditional: true}, edges[0])
	assert.Equal(t, Edge{From: stage.KindRSSFetch, To: []stage.Kind{stage.KindClassify}}, edges[1])
	assert.Equal(t, Edge{From: stage.KindAPIFetch, To: []stage.Kind{stage.KindClassify}}, edges[2])
	assert.Equal(t, Edge{From: stage.KindClassify, To: []stage.Kind{stage.KindStore}}, edges[3])
	assert.Equal(t, Edge{From: stage.KindStore, To: []stage.Kind{End}}, edges[4])
}

func TestNewIngestGraph_MissingStage(t *testing.T) {
	_, err := NewIngestGraph(IngestStages{
		Scheduler: noop(stage.KindScheduler),
		RSSFetch:  noop(stage.KindRSSFetch),
		Classify:  noop(stage.KindClassify),
		Store:     noop(stage.KindStore),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		want  error
	}{
		{
			name: "no entry",
			build: func() *Builder {
				return NewBuilder().AddNode(noop("a")).AddEdge("a", End)
			},
			want: ErrNoEntry,
		},
		{
			name: "entry not declared",
			build: func() *Builder {
				return NewBuilder().AddNode(noop("a")).AddEdge("a", End).SetEntry("b")
			},
			want: ErrUnknownNode,
		},
		{
			name: "edge to unknown node",
			build: func() *Builder {
				return NewBuilder().AddNode(noop("a")).SetEntry("a").AddEdge("a", "ghost")
			},
			want: ErrUnknownNode,
		},
		{
			name: "duplicate node",
			build: func() *Builder {
				return NewBuilder().AddNode(noop("a")).AddNode(noop("a")).SetEntry("a").AddEdge("a", End)
			},
			want: ErrDuplicateNode,
		},
		{
			name: "duplicate edge",
			build: func() *Builder {
				return NewBuilder().AddNode(noop("a")).SetEntry("a").AddEdge("a", End).AddEdge("a", End)
			},
			want: ErrDuplicateEdge,
		},
		{
			name: "missing edge",
			build: func() *Builder {
				return NewBuilder().AddNode(noop("a")).AddNode(noop("b")).SetEntry("a").AddEdge("a", "b")
			},
			want: ErrMissingEdge,
		},
		{
			name: "unreachable node",
			build: func() *Builder {
				return NewBuilder().
					AddNode(noop("a")).AddNode(noop("b")).
					SetEntry("a").
					AddEdge("a", End).AddEdge("b", End)
			},
			want: ErrUnreachableNode,
		},
		{
			name: "conditional to unknown node",
			build: func() *Builder {
				return NewBuilder().
					AddNode(noop("a")).AddNode(noop("b")).
					SetEntry("a").
					AddConditionalEdge("a", func(domain.State) stage.Kind { return "b" }, "b", "c").
					AddEdge("b", End)
			},
			want: ErrUnknownNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build().Build()
			require.Error(t, err)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGraphIsImmutable(t *testing.T) {
	b := NewBuilder().AddNode(noop("a")).SetEntry("a").AddEdge("a", End)
	g, err := b.Build()
	require.NoError(t, err)

	b.AddNode(noop("b"))
	nodes := g.Nodes()
	nodes[0] = "mutated"

	assert.Equal(t, []stage.Kind{"a"}, g.Nodes())
}

func TestRouteSource(t *testing.T) {
	cases := map[string]stage.Kind{
		domain.StepRSSAgent: stage.KindRSSFetch,
		domain.StepAPIAgent: stage.KindAPIFetch,
		"":                  stage.KindRSSFetch,
		"proquest_agent":    stage.KindRSSFetch,
	}
	for step, want := range cases {
		s := domain.NewState("rss")
		s.WorkflowStep = step
		before := s.Clone()

		assert.Equal(t, want, RouteSource(s), step)
		assert.Equal(t, before, s, "router must not mutate state")
	}
}
