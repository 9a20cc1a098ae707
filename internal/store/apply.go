package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jask/panels/internal/database"
	"github.com/jask/panels/internal/database/repository"
	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
)

// Apply merges attrs into id's attribute row and applies slots to its edges
// (Tombstone deletes, anything else upserts). Both parts commit together or
// not at all. The returned diff holds the attribute values as stored.
//
// After writing, every touched list slot must hold indices 0..n-1; otherwise
// the whole update is rolled back with ErrIndexGap.
func (s *Store) Apply(ctx context.Context, id string, attrs panel.AttrDiff, slots panel.SlotDiff) (panel.AttrDiff, error) {
	t, err := s.typeOf(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	norm, err := t.NormalizeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	lists := make(map[string]bool)
	for key := range slots {
		slot, err := t.CheckSlotKey(key)
		if err != nil {
			return nil, err
		}
		if slot.Cardinality == paneltype.List {
			lists[key.Name] = true
		}
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if len(norm) > 0 {
			if err := repository.NewAttributeRepo(tx).Upsert(ctx, t.Tag, id, norm); err != nil {
				return fmt.Errorf("write attributes of %q: %w", id, err)
			}
		}
		if len(slots) == 0 {
			return nil
		}

		edges := repository.NewSlotRepo(tx)
		panels := repository.NewPanelRepo(tx)
		keys := slots.Keys()
		for _, k := range keys {
			if slots[k] != panel.Tombstone {
				continue
			}
			if err := edges.Delete(ctx, id, k); err != nil {
				return fmt.Errorf("delete slot %s of %q: %w", k, id, err)
			}
		}
		for _, k := range keys {
			child := slots[k]
			if child == panel.Tombstone {
				continue
			}
			typ, err := panels.Type(ctx, child)
			if err != nil {
				return err
			}
			if typ == "" {
				return fmt.Errorf("%w: child %q of %q", panel.ErrUnknownPanel, child, id)
			}
			if err := edges.Upsert(ctx, id, k, child); err != nil {
				return fmt.Errorf("write slot %s of %q: %w", k, id, err)
			}
		}
		return checkContiguous(ctx, edges, id, lists)
	})
	if err != nil {
		s.log.Debug("apply rolled back", zap.String("panel", id), zap.Error(err))
		return nil, err
	}
	s.log.Debug("apply committed",
		zap.String("panel", id),
		zap.Int("attributes", len(norm)),
		zap.Int("slots", len(slots)))
	return norm, nil
}

func checkContiguous(ctx context.Context, edges *repository.SlotRepo, id string, lists map[string]bool) error {
	names := make([]string, 0, len(lists))
	for n := range lists {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		idx, err := edges.Indices(ctx, id, name)
		if err != nil {
			return err
		}
		for want, got := range idx {
			if got != want {
				return fmt.Errorf("%w: %q slot %s has index %d where %d was expected",
					panel.ErrIndexGap, id, name, got, want)
			}
		}
	}
	return nil
}
