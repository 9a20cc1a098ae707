package repository

import (
	"context"

	"github.com/jask/panels/internal/panel"
)

// SlotRepo handles the Slots edge table.
type SlotRepo struct {
	db DBTX
}

func NewSlotRepo(db DBTX) *SlotRepo {
	return &SlotRepo{db: db}
}

// ForParent returns every outgoing edge of parent ordered by slot name and index.
func (r *SlotRepo) ForParent(ctx context.Context, parent string) ([]panel.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT slot_name, slot_index, child FROM Slots
	WHERE parent = ?
	ORDER BY slot_name, slot_index`, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []panel.Edge
	for rows.Next() {
		e := panel.Edge{Parent: parent}
		if err := rows.Scan(&e.Key.Name, &e.Key.Index, &e.Child); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SlotRepo) Delete(ctx context.Context, parent string, key panel.SlotKey) error {
	_, err := r.db.ExecContext(ctx, `
	DELETE FROM Slots WHERE parent = ? AND slot_name = ? AND slot_index = ?`,
		parent, key.Name, key.Index)
	return err
}

func (r *SlotRepo) Upsert(ctx context.Context, parent string, key panel.SlotKey, child string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO Slots(parent, slot_name, slot_index, child) VALUES (?, ?, ?, ?)
	ON CONFLICT(parent, slot_name, slot_index) DO UPDATE SET child=excluded.child;
	`, parent, key.Name, key.Index, child)
	return err
}

// Indices returns the occupied indices of one slot in ascending order.
func (r *SlotRepo) Indices(ctx context.Context, parent, name string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT slot_index FROM Slots WHERE parent = ? AND slot_name = ? ORDER BY slot_index`, parent, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var i int
		if err := rows.Scan(&i); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// DeleteAll removes every slot edge.
func (r *SlotRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM Slots`)
	return err
}
