package view

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/panels/internal/panel"
)

// View is one open window onto a root panel.
type View struct {
	ID   string
	Root *Instance
}

// New wraps a materialized root under a fresh view id.
func New(root *Instance) *View {
	return &View{ID: uuid.NewString(), Root: root}
}

// Open materializes id and returns it as a new view.
func Open(ctx context.Context, b *Builder, id string) (*View, error) {
	root, err := b.Build(ctx, id)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

// Resolve follows path from the root.
func (v *View) Resolve(path panel.Path) (*Instance, error) {
	at := v.Root
	for _, s := range path {
		next, err := at.ChildAt(s.Key())
		if err != nil {
			return nil, err
		}
		at = next
	}
	return at, nil
}

// Deliver applies an update to the occurrence of target at path.
func (v *View) Deliver(ctx context.Context, target string, path panel.Path, attrs panel.AttrDiff, slots panel.SlotDiff) error {
	inst, err := v.Resolve(path)
	if err != nil {
		return fmt.Errorf("view %s at %s: %w", v.ID, path, err)
	}
	if inst.ID != target {
		return fmt.Errorf("%w: view %s shows %q at %s, expected %q", ErrOutOfSync, v.ID, inst.ID, path, target)
	}
	inst.ApplyAttributes(attrs)
	if err := inst.ApplySlotDiff(ctx, slots); err != nil {
		return fmt.Errorf("view %s at %s: %w", v.ID, path, err)
	}
	return nil
}

// Occurrences returns every instance in the view showing id.
func (v *View) Occurrences(id string) []*Instance {
	var out []*Instance
	v.Root.Walk(func(i *Instance) bool {
		if i.ID == id {
			out = append(out, i)
		}
		return true
	})
	return out
}
