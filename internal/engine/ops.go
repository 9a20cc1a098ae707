package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
	"github.com/jask/panels/internal/reconcile"
	"github.com/jask/panels/internal/view"
)

// RequestRemoval takes the occurrence inst out of its parent slot. Lists
// close the gap, singles just clear the position. The panel itself stays.
func (m *Manager) RequestRemoval(ctx context.Context, inst *view.Instance) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent := inst.Parent()
	if parent == nil {
		return Report{}, fmt.Errorf("%w: %q is a view root", ErrLocked, inst.ID)
	}
	key := inst.Key()
	slot, err := m.slotOf(ctx, parent.ID, key.Name)
	if err != nil {
		return Report{}, err
	}
	if slot.NoDrag {
		return Report{}, fmt.Errorf("%w: %s of %q", ErrLocked, key, parent.ID)
	}

	diff := panel.SlotDiff{key: panel.Tombstone}
	if slot.Cardinality == paneltype.List {
		ids, err := m.listIDs(ctx, parent.ID, key.Name)
		if err != nil {
			return Report{}, err
		}
		diff = slotDiff(key.Name, reconcile.Shift(ids, key.Index))
	}
	return m.submit(ctx, parent.ID, nil, diff)
}

// RequestInsert drops child into parent's slot at index. List slots shift
// the tail down; index is clamped to the list length.
func (m *Manager) RequestInsert(ctx context.Context, parent, slotName string, index int, child string) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(ctx, parent, slotName, index, child)
}

func (m *Manager) insert(ctx context.Context, parent, slotName string, index int, child string) (Report, error) {
	slot, err := m.slotOf(ctx, parent, slotName)
	if err != nil {
		return Report{}, err
	}
	childType, ok, err := m.store.TypeOf(ctx, child)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", panel.ErrUnknownPanel, child)
	}
	if !slot.Allows(childType) {
		return Report{}, fmt.Errorf("%w: %s slot %s takes no %s", ErrNotAccepted, parent, slotName, childType)
	}

	if slot.Cardinality == paneltype.List {
		ids, err := m.listIDs(ctx, parent, slotName)
		if err != nil {
			return Report{}, err
		}
		return m.submit(ctx, parent, nil, slotDiff(slotName, reconcile.Insert(ids, index, child)))
	}
	key := panel.SlotKey{Name: slotName, Index: index}
	if !slot.Contains(index) {
		return Report{}, fmt.Errorf("%w: %s of %q", panel.ErrNoSuchSlot, key, parent)
	}
	return m.submit(ctx, parent, nil, panel.SlotDiff{key: child})
}

// Move reorders inst within its list slot.
func (m *Manager) Move(ctx context.Context, inst *view.Instance, to int) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent := inst.Parent()
	if parent == nil {
		return Report{}, fmt.Errorf("%w: %q is a view root", ErrLocked, inst.ID)
	}
	key := inst.Key()
	slot, err := m.slotOf(ctx, parent.ID, key.Name)
	if err != nil {
		return Report{}, err
	}
	if slot.NoDrag || slot.Cardinality != paneltype.List {
		return Report{}, fmt.Errorf("%w: %s of %q", ErrLocked, key, parent.ID)
	}
	ids, err := m.listIDs(ctx, parent.ID, key.Name)
	if err != nil {
		return Report{}, err
	}
	d := reconcile.Move(ids, key.Index, to)
	if len(d) == 0 {
		return Report{}, nil
	}
	return m.submit(ctx, parent.ID, nil, slotDiff(key.Name, d))
}

// CreateChild creates a panel of type tag under a generated id and places it
// at the end of a list slot, or in the first free single position.
func (m *Manager) CreateChild(ctx context.Context, parent, slotName, tag string) (string, Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", Report{}, ErrClosed
	}

	slot, err := m.slotOf(ctx, parent, slotName)
	if err != nil {
		return "", Report{}, err
	}
	if _, err := m.types.Creatable(tag); err != nil {
		return "", Report{}, err
	}
	if !slot.Allows(tag) {
		return "", Report{}, fmt.Errorf("%w: %s slot %s takes no %s", ErrNotAccepted, parent, slotName, tag)
	}

	index := 0
	if slot.Cardinality == paneltype.List {
		ids, err := m.listIDs(ctx, parent, slotName)
		if err != nil {
			return "", Report{}, err
		}
		index = len(ids)
	} else {
		slots, err := m.store.Slots(ctx, parent)
		if err != nil {
			return "", Report{}, err
		}
		for index = 0; slot.Contains(index); index++ {
			if _, taken := slots[panel.SlotKey{Name: slotName, Index: index}]; !taken {
				break
			}
		}
		if !slot.Contains(index) {
			return "", Report{}, fmt.Errorf("%w: %s slot %s is full", ErrNotAccepted, parent, slotName)
		}
	}

	id := uuid.NewString()
	if err := m.store.Create(ctx, id, tag); err != nil {
		return "", Report{}, err
	}
	m.log.Debug("child created", zap.String("panel", id), zap.String("parent", parent), zap.String("slot", slotName))
	rep, err := m.insert(ctx, parent, slotName, index, id)
	return id, rep, err
}

func (m *Manager) slotOf(ctx context.Context, id, name string) (paneltype.Slot, error) {
	tag, ok, err := m.store.TypeOf(ctx, id)
	if err != nil {
		return paneltype.Slot{}, err
	}
	if !ok {
		return paneltype.Slot{}, fmt.Errorf("%w: %q", panel.ErrUnknownPanel, id)
	}
	t, err := m.types.MustLookup(tag)
	if err != nil {
		return paneltype.Slot{}, err
	}
	s, ok := t.Slot(name)
	if !ok {
		return paneltype.Slot{}, fmt.Errorf("%w: %s has no slot %q", panel.ErrNoSuchSlot, tag, name)
	}
	return s, nil
}

// listIDs reads a list slot from the store, which keeps it contiguous.
func (m *Manager) listIDs(ctx context.Context, parent, name string) ([]string, error) {
	slots, err := m.store.Slots(ctx, parent)
	if err != nil {
		return nil, err
	}
	var ids []string
	for i := 0; ; i++ {
		id, ok := slots[panel.SlotKey{Name: name, Index: i}]
		if !ok {
			return ids, nil
		}
		ids = append(ids, id)
	}
}

func slotDiff(name string, d map[int]string) panel.SlotDiff {
	out := make(panel.SlotDiff, len(d))
	for i, v := range d {
		out[panel.SlotKey{Name: name, Index: i}] = v
	}
	return out
}
