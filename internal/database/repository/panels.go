package repository

import (
	"context"
	"database/sql"
	"errors"
)

// PanelRepo handles the Panels table.
type PanelRepo struct {
	db DBTX
}

func NewPanelRepo(db DBTX) *PanelRepo {
	return &PanelRepo{db: db}
}

func (r *PanelRepo) Insert(ctx context.Context, p Panel) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO Panels(id, type) VALUES (?, ?)`, p.ID, p.Type)
	return err
}

// InsertIfMissing inserts p unless a panel with its id exists. It reports
// whether a row was written.
func (r *PanelRepo) InsertIfMissing(ctx context.Context, p Panel) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO Panels(id, type) VALUES (?, ?)`, p.ID, p.Type)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Type returns the type of id, or "" if no such panel exists.
func (r *PanelRepo) Type(ctx context.Context, id string) (string, error) {
	var typ string
	err := r.db.QueryRowContext(ctx, `SELECT type FROM Panels WHERE id = ?`, id).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return typ, err
}

func (r *PanelRepo) ListByType(ctx context.Context, typ string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM Panels WHERE type = ? ORDER BY id`, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PanelRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Panels`).Scan(&n)
	return n, err
}

// DeleteAll removes every panel. Slots and attribute rows must go first.
func (r *PanelRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM Panels`)
	return err
}
