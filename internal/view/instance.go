package view

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/reconcile"
)

// ErrOutOfSync means a delivery addressed something this view does not show.
var ErrOutOfSync = errors.New("view out of sync with store")

// Instance is one on-screen occurrence of a panel. The same panel shown twice
// has two instances.
type Instance struct {
	ID    string
	Type  string
	Attrs panel.AttrDiff
	// Truncated instances repeat an ancestor or sit at the depth cap. They
	// show attributes only and ignore slot updates.
	Truncated bool

	typ    *paneltype.Type
	b      *Builder
	parent *Instance
	key    panel.SlotKey
	depth  int

	lists   map[string]*ListContainer
	singles map[string]*SingleContainer
}

// ListContainer holds the ordered children of a list slot.
type ListContainer struct {
	Slot  paneltype.Slot
	Items []*Instance
}

// SingleContainer holds the independently addressed positions of a single slot.
type SingleContainer struct {
	Slot  paneltype.Slot
	Items map[int]*Instance
}

// PanelID returns the id of the shown panel.
func (i *Instance) PanelID() string { return i.ID }

// Parent returns the containing instance, nil for a view root or a detached one.
func (i *Instance) Parent() *Instance { return i.parent }

// Key returns the slot position this instance occupies in its parent.
func (i *Instance) Key() panel.SlotKey { return i.key }

// Index returns the position within the parent's slot.
func (i *Instance) Index() int { return i.key.Index }

// Depth is the number of steps from the view root.
func (i *Instance) Depth() int { return i.depth }

// PanelType returns the capability record of the shown panel.
func (i *Instance) PanelType() *paneltype.Type { return i.typ }

// Path returns the steps from the view root to this instance.
func (i *Instance) Path() panel.Path {
	var rev []panel.Step
	for at := i; at.parent != nil; at = at.parent {
		rev = append(rev, panel.Step{Slot: at.key.Name, Index: at.key.Index})
	}
	out := make(panel.Path, len(rev))
	for n, s := range rev {
		out[len(rev)-1-n] = s
	}
	return out
}

// List returns the container of a list slot.
func (i *Instance) List(name string) (*ListContainer, bool) {
	c, ok := i.lists[name]
	return c, ok
}

// Single returns the container of a single slot.
func (i *Instance) Single(name string) (*SingleContainer, bool) {
	c, ok := i.singles[name]
	return c, ok
}

// ListIDs returns the child ids currently shown in a list slot.
func (i *Instance) ListIDs(name string) []string {
	c, ok := i.lists[name]
	if !ok {
		return nil
	}
	out := make([]string, len(c.Items))
	for n, it := range c.Items {
		out[n] = it.ID
	}
	return out
}

// ApplyAttributes merges new attribute values into the instance.
func (i *Instance) ApplyAttributes(attrs panel.AttrDiff) {
	if len(attrs) == 0 {
		return
	}
	if i.Attrs == nil {
		i.Attrs = panel.AttrDiff{}
	}
	for k, v := range attrs {
		i.Attrs[k] = v
	}
}

// ApplySlotDiff reconciles every container the diff addresses. All containers
// are reconciled before any is changed, so a failure leaves the instance as it
// was.
func (i *Instance) ApplySlotDiff(ctx context.Context, diff panel.SlotDiff) error {
	if len(diff) == 0 || i.Truncated {
		return nil
	}
	for k := range diff {
		if _, err := i.typ.CheckSlotKey(k); err != nil {
			return err
		}
	}

	var commits []func()
	for _, name := range diff.Names() {
		entries := diff.ForSlot(name)
		if lc, ok := i.lists[name]; ok {
			res, err := reconcile.List(lc.Items, entries, i.maker(ctx, name))
			if err != nil {
				return fmt.Errorf("%s slot %s: %w", i.ID, name, err)
			}
			commits = append(commits, func() {
				lc.Items = res.Items
				for n, it := range lc.Items {
					it.key = panel.SlotKey{Name: name, Index: n}
				}
				for _, it := range res.Discarded {
					it.detach()
				}
			})
			continue
		}

		sc := i.singles[name]
		next := make(map[int]*Instance, len(sc.Items))
		for k, v := range sc.Items {
			next[k] = v
		}
		var dropped []*Instance
		for _, idx := range sortedKeys(entries) {
			cur, had := sc.Items[idx]
			it, present, created, err := reconcile.Single(cur, had, entries[idx], i.maker(ctx, name))
			if err != nil {
				return fmt.Errorf("%s slot %s: %w", i.ID, panel.SlotKey{Name: name, Index: idx}, err)
			}
			if had && (created || !present) {
				dropped = append(dropped, cur)
			}
			if present {
				next[idx] = it
			} else {
				delete(next, idx)
			}
		}
		commits = append(commits, func() {
			sc.Items = next
			for idx, it := range sc.Items {
				it.key = panel.SlotKey{Name: name, Index: idx}
			}
			for _, it := range dropped {
				it.detach()
			}
		})
	}

	for _, c := range commits {
		c()
	}
	return nil
}

func (i *Instance) maker(ctx context.Context, slot string) func(string) (*Instance, error) {
	return func(id string) (*Instance, error) {
		return i.b.build(ctx, id, i, panel.SlotKey{Name: slot}, i.depth+1)
	}
}

func (i *Instance) detach() {
	i.parent = nil
}

// ChildAt returns the child occupying key.
func (i *Instance) ChildAt(key panel.SlotKey) (*Instance, error) {
	if lc, ok := i.lists[key.Name]; ok {
		if key.Index >= 0 && key.Index < len(lc.Items) {
			return lc.Items[key.Index], nil
		}
	} else if sc, ok := i.singles[key.Name]; ok {
		if it, ok := sc.Items[key.Index]; ok {
			return it, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has nothing at %s", ErrOutOfSync, i.ID, key)
}

// Children returns the children in slot declaration order, then by index.
func (i *Instance) Children() []*Instance {
	if i.typ == nil {
		return nil
	}
	var out []*Instance
	for _, s := range i.typ.Slots {
		if lc, ok := i.lists[s.Name]; ok {
			out = append(out, lc.Items...)
			continue
		}
		if sc, ok := i.singles[s.Name]; ok {
			for _, idx := range sortedKeys(sc.Items) {
				out = append(out, sc.Items[idx])
			}
		}
	}
	return out
}

// Walk visits the instance and its descendants depth first. Returning false
// from fn skips the children of that instance.
func (i *Instance) Walk(fn func(*Instance) bool) {
	if !fn(i) {
		return
	}
	for _, c := range i.Children() {
		c.Walk(fn)
	}
}

func (i *Instance) hasAncestor(id string) bool {
	for at := i; at != nil; at = at.parent {
		if at.ID == id {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
