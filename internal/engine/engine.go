// Package engine ties the store, the path resolver and the open views
// together. Every committed change is pushed to every occurrence of the
// changed panel in every open view before Submit returns.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/resolver"
	"github.com/jask/panels/internal/store"
	"github.com/jask/panels/internal/view"
)

var (
	// ErrNotAccepted means a slot refuses the dropped child.
	ErrNotAccepted = errors.New("slot does not accept child")
	// ErrLocked means the occurrence cannot be dragged out of its slot.
	ErrLocked = errors.New("slot position is locked")
	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("engine shut down")
	// ErrViewOutOfSync wraps delivery failures after a committed update.
	ErrViewOutOfSync = errors.New("views out of sync")
	// ErrNoDailyType means a calendar has no type in its daily_type slot.
	ErrNoDailyType = errors.New("calendar has no daily type")
)

// Report describes one propagated update.
type Report struct {
	// Views is the number of open views that show the panel at least once.
	Views int
	// Paths is the number of occurrences found.
	Paths int
	// Deliveries is the number of occurrences updated successfully.
	Deliveries int
	// Cutoffs counts resolver branches abandoned by the cycle or depth guard.
	Cutoffs int
}

func (r *Report) add(o Report) {
	r.Views += o.Views
	r.Paths += o.Paths
	r.Deliveries += o.Deliveries
	r.Cutoffs += o.Cutoffs
}

// Manager owns the open views of one process.
type Manager struct {
	store    *store.Store
	types    *paneltype.Registry
	resolver *resolver.Resolver
	builder  *view.Builder
	log      *zap.Logger
	maxDepth int

	mu     sync.Mutex
	views  []*view.View
	closed bool
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMaxDepth bounds both path resolution and view materialization.
func WithMaxDepth(n int) Option {
	return func(m *Manager) { m.maxDepth = n }
}

// New starts a manager with no open views.
func New(s *store.Store, types *paneltype.Registry, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		types:    types,
		log:      zap.NewNop(),
		maxDepth: resolver.DefaultMaxDepth,
	}
	for _, o := range opts {
		o(m)
	}
	m.resolver = resolver.New(s, m.maxDepth, m.log.Named("resolver"))
	m.builder = view.NewBuilder(s, types, m.maxDepth)
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() *store.Store { return m.store }

// Types returns the type registry.
func (m *Manager) Types() *paneltype.Registry { return m.types }

// Shutdown closes every view. Later calls fail with ErrClosed.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.log.Info("engine shutdown", zap.Int("views", len(m.views)))
	m.views = nil
	m.closed = true
}

// OpenView opens a new view rooted at id. With newType set, the panel is
// created first if it does not exist yet.
func (m *Manager) OpenView(ctx context.Context, id, newType string) (*view.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if newType != "" {
		ok, err := m.store.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := m.store.Create(ctx, id, newType); err != nil {
				return nil, err
			}
		}
	}
	v, err := view.Open(ctx, m.builder, id)
	if err != nil {
		return nil, fmt.Errorf("open view %q: %w", id, err)
	}
	m.views = append(m.views, v)
	m.log.Info("view opened", zap.String("view", v.ID), zap.String("root", id))
	return v, nil
}

// CloseView forgets v. Closing an unknown view does nothing.
func (m *Manager) CloseView(v *view.View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.views {
		if o == v {
			m.views = append(m.views[:i], m.views[i+1:]...)
			m.log.Info("view closed", zap.String("view", v.ID), zap.String("root", v.Root.ID))
			return
		}
	}
}

// Views returns the open views in opening order.
func (m *Manager) Views() []*view.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*view.View(nil), m.views...)
}

// ViewsOf returns the open views rooted at id.
func (m *Manager) ViewsOf(id string) []*view.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*view.View
	for _, v := range m.views {
		if v.Root.ID == id {
			out = append(out, v)
		}
	}
	return out
}

// Submit commits an update to id and delivers it to every occurrence of id
// in every open view. Nothing is delivered if the store rejects the update.
// Delivery failures after a commit are joined under ErrViewOutOfSync; the
// report still counts what was delivered.
func (m *Manager) Submit(ctx context.Context, id string, attrs panel.AttrDiff, slots panel.SlotDiff) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submit(ctx, id, attrs, slots)
}

func (m *Manager) submit(ctx context.Context, id string, attrs panel.AttrDiff, slots panel.SlotDiff) (Report, error) {
	if m.closed {
		return Report{}, ErrClosed
	}
	norm, err := m.store.Apply(ctx, id, attrs, slots)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	var errs []error
	for _, v := range m.views {
		res, err := m.resolver.FindPaths(ctx, v.Root.ID, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("view %s: %w", v.ID, err))
			continue
		}
		rep.Cutoffs += res.Cutoffs
		if len(res.Paths) == 0 {
			continue
		}
		rep.Views++
		rep.Paths += len(res.Paths)

		// shallowest first: paths come from the committed graph, so a path
		// running through an edge this diff added resolves only after the
		// delivery at its prefix has built that edge into the view
		paths := res.Paths
		sort.SliceStable(paths, func(i, j int) bool { return len(paths[i]) < len(paths[j]) })
		for _, p := range paths {
			if err := v.Deliver(ctx, id, p, norm, slots); err != nil {
				errs = append(errs, err)
				continue
			}
			rep.Deliveries++
		}
	}

	m.log.Debug("update propagated",
		zap.String("panel", id),
		zap.Int("views", rep.Views),
		zap.Int("paths", rep.Paths),
		zap.Int("deliveries", rep.Deliveries),
		zap.Int("cutoffs", rep.Cutoffs))
	if len(errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrViewOutOfSync, errors.Join(errs...))
		m.log.Warn("update not fully delivered", zap.String("panel", id), zap.Error(err))
		return rep, err
	}
	return rep, nil
}
