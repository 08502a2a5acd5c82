package workflow

import (
	"errors"
	"fmt"
	"slices"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/stage"
)

// End is the terminal sink. It is never backed by a stage.
const End stage.Kind = "__end__"

// Router picks the next node at a conditional branch. It must be pure.
type Router func(state domain.State) stage.Kind

type edge struct {
	to         stage.Kind
	router     Router
	candidates []stage.Kind
}

func (e edge) conditional() bool {
	return e.router != nil
}

func (e edge) targets() []stage.Kind {
	if e.conditional() {
		return e.candidates
	}
	return []stage.Kind{e.to}
}

// Edge describes an outgoing edge for inspection.
type Edge struct {
	From        stage.Kind
	To          []stage.Kind
	Conditional bool
}

// Graph is an immutable, validated workflow.
type Graph struct {
	entry stage.Kind
	order []stage.Kind
	nodes map[stage.Kind]stage.Stage
	edges map[stage.Kind]edge
}

// Entry returns the entry node.
func (g *Graph) Entry() stage.Kind {
	return g.entry
}

// Nodes returns node names in declaration order.
func (g *Graph) Nodes() []stage.Kind {
	return slices.Clone(g.order)
}

// Edges returns outgoing edges in node declaration order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.order))
	for _, from := range g.order {
		e := g.edges[from]
		out = append(out, Edge{From: from, To: slices.Clone(e.targets()), Conditional: e.conditional()})
	}
	return out
}

func (g *Graph) leadsToEnd(node stage.Kind) bool {
	e, ok := g.edges[node]
	return ok && !e.conditional() && e.to == End
}

// Builder assembles a Graph. Errors are collected and reported by Build.
type Builder struct {
	entry stage.Kind
	order []stage.Kind
	nodes map[stage.Kind]stage.Stage
	edges map[stage.Kind]edge
	errs  []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: map[stage.Kind]stage.Stage{},
		edges: map[stage.Kind]edge{},
	}
}

// AddNode registers a stage under its kind.
func (b *Builder) AddNode(s stage.Stage) *Builder {
	if s == nil {
		b.errs = append(b.errs, fmt.Errorf("add node: nil stage"))
		return b
	}
	kind := s.Kind()
	if _, ok := b.nodes[kind]; ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, kind))
		return b
	}
	b.nodes[kind] = s
	b.order = append(b.order, kind)
	return b
}

// SetEntry designates the node every run starts from.
func (b *Builder) SetEntry(kind stage.Kind) *Builder {
	b.entry = kind
	return b
}

// AddEdge declares an unconditional edge. Use End as the target for the sink.
func (b *Builder) AddEdge(from, to stage.Kind) *Builder {
	return b.addEdge(from, edge{to: to})
}

// AddConditionalEdge declares a branch resolved by router among candidates.
func (b *Builder) AddConditionalEdge(from stage.Kind, router Router, candidates ...stage.Kind) *Builder {
	if router == nil {
		b.errs = append(b.errs, fmt.Errorf("conditional edge from %s: nil router", from))
		return b
	}
	return b.addEdge(from, edge{router: router, candidates: slices.Clone(candidates)})
}

func (b *Builder) addEdge(from stage.Kind, e edge) *Builder {
	if _, ok := b.edges[from]; ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateEdge, from))
		return b
	}
	b.edges[from] = e
	return b
}

// Build validates the declarations and returns the immutable graph.
func (b *Builder) Build() (*Graph, error) {
	errs := slices.Clone(b.errs)

	if b.entry == "" {
		errs = append(errs, ErrNoEntry)
	} else if _, ok := b.nodes[b.entry]; !ok {
		errs = append(errs, fmt.Errorf("%w: entry %s", ErrUnknownNode, b.entry))
	}

	for from, e := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge source %s", ErrUnknownNode, from))
		}
		if e.conditional() && len(e.candidates) == 0 {
			errs = append(errs, fmt.Errorf("conditional edge from %s has no candidates", from))
		}
		for _, to := range e.targets() {
			if to == End {
				continue
			}
			if _, ok := b.nodes[to]; !ok {
				errs = append(errs, fmt.Errorf("%w: edge %s -> %s", ErrUnknownNode, from, to))
			}
		}
	}

	for _, kind := range b.order {
		if _, ok := b.edges[kind]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEdge, kind))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("build graph: %w", errors.Join(errs...))
	}

	reached := b.reachable()
	for _, kind := range b.order {
		if !reached[kind] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachableNode, kind))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("build graph: %w", errors.Join(errs...))
	}

	g := &Graph{
		entry: b.entry,
		order: slices.Clone(b.order),
		nodes: make(map[stage.Kind]stage.Stage, len(b.nodes)),
		edges: make(map[stage.Kind]edge, len(b.edges)),
	}
	for k, v := range b.nodes {
		g.nodes[k] = v
	}
	for k, v := range b.edges {
		v.candidates = slices.Clone(v.candidates)
		g.edges[k] = v
	}
	return g, nil
}

func (b *Builder) reachable() map[stage.Kind]bool {
	seen := map[stage.Kind]bool{b.entry: true}
	queue := []stage.Kind{b.entry}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, to := range b.edges[cur].targets() {
			if to == End || seen[to] {
				continue
			}
			seen[to] = true
			queue = append(queue, to)
		}
	}
	return seen
}
