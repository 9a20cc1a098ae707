// Package resolver finds every route through slot edges from a view root to a
// target panel.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/jask/panels/internal/panel"
)

// DefaultMaxDepth bounds walks when no depth is configured.
const DefaultMaxDepth = 64

// Graph supplies outgoing slot edges.
type Graph interface {
	Edges(ctx context.Context, id string) ([]panel.Edge, error)
}

// Resolver enumerates paths over a Graph.
type Resolver struct {
	Graph    Graph
	MaxDepth int
	Logger   *zap.Logger
}

// New returns a resolver with the given depth cap (<= 0 uses DefaultMaxDepth).
func New(g Graph, maxDepth int, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{Graph: g, MaxDepth: maxDepth, Logger: log}
}

// Result is the outcome of one FindPaths call.
type Result struct {
	Paths []panel.Path
	// Cutoffs counts branches abandoned by the cycle or depth guard.
	Cutoffs int
}

// FindPaths returns every walk from root to target. root == target yields
// the empty path among the results. A walk never expands a panel it has
// already visited, though it may end on one if that panel is the target,
// and never takes more than MaxDepth steps. Path order is unspecified.
func (r *Resolver) FindPaths(ctx context.Context, root, target string) (Result, error) {
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	w := walker{
		ctx:      ctx,
		graph:    r.Graph,
		target:   target,
		maxDepth: maxDepth,
		log:      log,
		edges:    make(map[string][]panel.Edge),
		onWalk:   map[string]bool{},
	}
	if err := w.visit(root, nil); err != nil {
		return Result{}, err
	}
	return Result{Paths: w.paths, Cutoffs: w.cutoffs}, nil
}

type walker struct {
	ctx      context.Context
	graph    Graph
	target   string
	maxDepth int
	log      *zap.Logger

	edges   map[string][]panel.Edge
	onWalk  map[string]bool
	paths   []panel.Path
	cutoffs int
}

func (w *walker) outgoing(id string) ([]panel.Edge, error) {
	if e, ok := w.edges[id]; ok {
		return e, nil
	}
	e, err := w.graph.Edges(w.ctx, id)
	if err != nil {
		return nil, err
	}
	w.edges[id] = e
	return e, nil
}

func (w *walker) visit(id string, path panel.Path) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if id == w.target {
		w.paths = append(w.paths, path)
	}
	if w.onWalk[id] {
		w.cut(id, path, "cycle")
		return nil
	}
	edges, err := w.outgoing(id)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}
	if len(path) >= w.maxDepth {
		w.cut(id, path, "depth")
		return nil
	}

	w.onWalk[id] = true
	defer delete(w.onWalk, id)
	for _, e := range edges {
		step := panel.Step{Slot: e.Key.Name, Index: e.Key.Index}
		if err := w.visit(e.Child, path.Extend(step)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) cut(id string, path panel.Path, reason string) {
	w.cutoffs++
	w.log.Debug("path branch abandoned",
		zap.String("panel", id),
		zap.String("path", path.String()),
		zap.String("reason", reason),
		zap.Error(panel.ErrCycleOrDepthExceeded))
}
