package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AttributeRepo handles the per-type attribute tables. Table and column names
// come from the panel type registry, which only admits [a-z][a-z0-9_]*.
type AttributeRepo struct {
	db DBTX
}

func NewAttributeRepo(db DBTX) *AttributeRepo {
	return &AttributeRepo{db: db}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// EnsureTable creates the attribute table of a type if it does not exist.
func (r *AttributeRepo) EnsureTable(ctx context.Context, table string, cols []Column) error {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, "panelid TEXT PRIMARY KEY REFERENCES Panels(id)")
	for _, c := range cols {
		defs = append(defs, quoteIdent(c.Name)+" "+c.SQLType)
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(table), strings.Join(defs, ", ")))
	return err
}

// TableExists reports whether the attribute table of a type exists.
func (r *AttributeRepo) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
	return n > 0, err
}

// Upsert writes values into id's row, creating the row if needed. Columns not
// in values keep their current value.
func (r *AttributeRepo) Upsert(ctx context.Context, table, id string, values map[string]any) error {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := []string{"panelid"}
	marks := []string{"?"}
	args := []any{id}
	sets := make([]string, 0, len(names))
	for _, n := range names {
		q := quoteIdent(n)
		cols = append(cols, q)
		marks = append(marks, "?")
		args = append(args, values[n])
		sets = append(sets, fmt.Sprintf("%s=excluded.%s", q, q))
	}
	query := fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s)", quoteIdent(table),
		strings.Join(cols, ", "), strings.Join(marks, ", "))
	if len(sets) > 0 {
		query += " ON CONFLICT(panelid) DO UPDATE SET " + strings.Join(sets, ", ")
	} else {
		query += " ON CONFLICT(panelid) DO NOTHING"
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Get reads the named columns of id's row. ok is false if the row is missing.
func (r *AttributeRepo) Get(ctx context.Context, table, id string, columns []string) (map[string]any, bool, error) {
	if len(columns) == 0 {
		return map[string]any{}, true, nil
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE panelid = ?",
		strings.Join(quoted, ", "), quoteIdent(table)), id)

	vals := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	out := make(map[string]any, len(columns))
	for i, c := range columns {
		out[c] = vals[i]
	}
	return out, true, nil
}

// DropTable removes the attribute table of a type, if present.
func (r *AttributeRepo) DropTable(ctx context.Context, table string) error {
	_, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table))
	return err
}
