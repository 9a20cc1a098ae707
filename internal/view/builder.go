// Package view holds live, in-memory renderings of a panel subtree. Views own
// their instances; the store owns the data.
package view

import (
	"context"
	"fmt"
	"maps"
	"sort"

	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/resolver"
)

// Loader reads one panel from the store.
type Loader interface {
	Load(ctx context.Context, id string) (panel.Snapshot, error)
}

// Builder materializes instances.
type Builder struct {
	Loader   Loader
	Types    *paneltype.Registry
	MaxDepth int
}

// NewBuilder returns a builder; maxDepth <= 0 uses resolver.DefaultMaxDepth
// so views truncate exactly where path resolution stops.
func NewBuilder(l Loader, types *paneltype.Registry, maxDepth int) *Builder {
	if maxDepth <= 0 {
		maxDepth = resolver.DefaultMaxDepth
	}
	return &Builder{Loader: l, Types: types, MaxDepth: maxDepth}
}

// Build materializes the subtree rooted at id.
func (b *Builder) Build(ctx context.Context, id string) (*Instance, error) {
	return b.build(ctx, id, nil, panel.SlotKey{}, 0)
}

func (b *Builder) build(ctx context.Context, id string, parent *Instance, key panel.SlotKey, depth int) (*Instance, error) {
	snap, err := b.Loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := b.Types.MustLookup(snap.Type)
	if err != nil {
		return nil, err
	}
	inst := &Instance{
		ID:      snap.ID,
		Type:    snap.Type,
		Attrs:   maps.Clone(snap.Attrs),
		typ:     t,
		b:       b,
		parent:  parent,
		key:     key,
		depth:   depth,
		lists:   make(map[string]*ListContainer),
		singles: make(map[string]*SingleContainer),
	}
	if inst.Attrs == nil {
		inst.Attrs = panel.AttrDiff{}
	}
	if (parent != nil && parent.hasAncestor(id)) || depth >= b.MaxDepth {
		inst.Truncated = true
		return inst, nil
	}

	for _, s := range t.Slots {
		if s.Cardinality == paneltype.List {
			inst.lists[s.Name] = &ListContainer{Slot: s}
		} else {
			inst.singles[s.Name] = &SingleContainer{Slot: s, Items: make(map[int]*Instance)}
		}
	}

	keys := make([]panel.SlotKey, 0, len(snap.Slots))
	for k := range snap.Slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Index < keys[j].Index
	})
	for _, k := range keys {
		child, err := b.build(ctx, snap.Slots[k], inst, k, depth+1)
		if err != nil {
			return nil, fmt.Errorf("materialize %s of %q: %w", k, id, err)
		}
		if lc, ok := inst.lists[k.Name]; ok {
			child.key.Index = len(lc.Items)
			lc.Items = append(lc.Items, child)
		} else if sc, ok := inst.singles[k.Name]; ok {
			sc.Items[k.Index] = child
		}
	}
	return inst, nil
}
