// Package store is the single source of truth for panels: their rows, their
// per-type attribute tables and the slot edges between them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jask/panels/internal/database"
	"github.com/jask/panels/internal/database/repository"
	"github.com/jask/panels/internal/panel"
	"github.com/jask/panels/internal/paneltype"
)

// Store persists panels in sqlite. It assumes a single writer process.
type Store struct {
	db    *sql.DB
	types *paneltype.Registry
	log   *zap.Logger

	mu         sync.Mutex
	registered map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New wraps a migrated database.
func New(db *sql.DB, types *paneltype.Registry, opts ...Option) *Store {
	s := &Store{
		db:         db,
		types:      types,
		log:        zap.NewNop(),
		registered: make(map[string]bool),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the type registry the store validates against.
func (s *Store) Registry() *paneltype.Registry {
	return s.types
}

// EnsureTypeRegistered materializes the attribute table of a type and its
// registry panel. Only the first call per type touches the database.
func (s *Store) EnsureTypeRegistered(ctx context.Context, tag string) error {
	t, err := s.types.MustLookup(tag)
	if err != nil {
		return err
	}
	s.mu.Lock()
	done := s.registered[tag]
	s.mu.Unlock()
	if done {
		return nil
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if t.DeclaresAttributes() {
			cols := make([]repository.Column, len(t.Attributes))
			for i, a := range t.Attributes {
				cols[i] = repository.Column{Name: a.Name, SQLType: a.Kind.SQLType()}
			}
			if err := repository.NewAttributeRepo(tx).EnsureTable(ctx, t.Tag, cols); err != nil {
				return fmt.Errorf("create attribute table %s: %w", t.Tag, err)
			}
		}
		panels := repository.NewPanelRepo(tx)
		for _, id := range []string{paneltype.TypeTag, t.Tag} {
			created, err := panels.InsertIfMissing(ctx, repository.Panel{ID: id, Type: paneltype.TypeTag})
			if err != nil {
				return fmt.Errorf("register type %s: %w", id, err)
			}
			if created {
				s.log.Debug("registered panel type", zap.String("type", id))
				continue
			}
			typ, err := panels.Type(ctx, id)
			if err != nil {
				return err
			}
			if typ != paneltype.TypeTag {
				return fmt.Errorf("%w: registry panel %q is a %s", panel.ErrDuplicateID, id, typ)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.registered[tag] = true
	s.mu.Unlock()
	return nil
}

// Create inserts a new panel of a user-creatable type with its default
// attributes, as one transaction.
func (s *Store) Create(ctx context.Context, id, tag string) error {
	if strings.TrimSpace(id) == "" {
		return panel.ErrEmptyID
	}
	t, err := s.types.Creatable(tag)
	if err != nil {
		return err
	}
	if _, ok := s.types.Lookup(id); ok {
		return fmt.Errorf("%w: %q is the registry panel of a type", panel.ErrDuplicateID, id)
	}
	if err := s.EnsureTypeRegistered(ctx, tag); err != nil {
		return err
	}
	defaults, err := t.Defaults()
	if err != nil {
		return err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		panels := repository.NewPanelRepo(tx)
		existing, err := panels.Type(ctx, id)
		if err != nil {
			return err
		}
		if existing != "" {
			return fmt.Errorf("%w: %q", panel.ErrDuplicateID, id)
		}
		if err := panels.Insert(ctx, repository.Panel{ID: id, Type: tag}); err != nil {
			return err
		}
		if t.DeclaresAttributes() {
			return repository.NewAttributeRepo(tx).Upsert(ctx, tag, id, defaults)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("panel created", zap.String("panel", id), zap.String("type", tag))
	return nil
}

// TypeOf returns the type tag of id; ok is false if there is no such panel.
func (s *Store) TypeOf(ctx context.Context, id string) (string, bool, error) {
	typ, err := repository.NewPanelRepo(s.db).Type(ctx, id)
	if err != nil {
		return "", false, err
	}
	return typ, typ != "", nil
}

// Exists reports whether a panel with id exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.TypeOf(ctx, id)
	return ok, err
}

func (s *Store) typeOf(ctx context.Context, q repository.DBTX, id string) (*paneltype.Type, error) {
	tag, err := repository.NewPanelRepo(q).Type(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, fmt.Errorf("%w: %q", panel.ErrUnknownPanel, id)
	}
	return s.types.MustLookup(tag)
}

// Attributes returns the attribute values of id, empty if its type declares none.
func (s *Store) Attributes(ctx context.Context, id string) (panel.AttrDiff, error) {
	t, err := s.typeOf(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return s.attributes(ctx, t, id)
}

func (s *Store) attributes(ctx context.Context, t *paneltype.Type, id string) (panel.AttrDiff, error) {
	out := panel.AttrDiff{}
	if !t.DeclaresAttributes() {
		return out, nil
	}
	row, ok, err := repository.NewAttributeRepo(s.db).Get(ctx, t.Tag, id, t.AttributeNames())
	if err != nil {
		return nil, fmt.Errorf("read attributes of %q: %w", id, err)
	}
	if !ok {
		return out, nil
	}
	for _, a := range t.Attributes {
		v, err := a.Kind.Normalize(row[a.Name])
		if err != nil {
			return nil, fmt.Errorf("read attributes of %q: %w", id, err)
		}
		out[a.Name] = v
	}
	return out, nil
}

// Slots returns the slot edges of id keyed by (name, index).
func (s *Store) Slots(ctx context.Context, id string) (map[panel.SlotKey]string, error) {
	if _, err := s.typeOf(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.slots(ctx, id)
}

func (s *Store) slots(ctx context.Context, id string) (map[panel.SlotKey]string, error) {
	edges, err := repository.NewSlotRepo(s.db).ForParent(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[panel.SlotKey]string, len(edges))
	for _, e := range edges {
		out[e.Key] = e.Child
	}
	return out, nil
}

// Edges returns the outgoing slot edges of id ordered by slot name and index.
// An unknown id simply has no edges.
func (s *Store) Edges(ctx context.Context, id string) ([]panel.Edge, error) {
	return repository.NewSlotRepo(s.db).ForParent(ctx, id)
}

// Load reads everything needed to materialize id.
func (s *Store) Load(ctx context.Context, id string) (panel.Snapshot, error) {
	t, err := s.typeOf(ctx, s.db, id)
	if err != nil {
		return panel.Snapshot{}, err
	}
	attrs, err := s.attributes(ctx, t, id)
	if err != nil {
		return panel.Snapshot{}, err
	}
	slots, err := s.slots(ctx, id)
	if err != nil {
		return panel.Snapshot{}, err
	}
	return panel.Snapshot{ID: id, Type: t.Tag, Attrs: attrs, Slots: slots}, nil
}

// QueryByType lists the ids of every panel of a type.
func (s *Store) QueryByType(ctx context.Context, tag string) ([]string, error) {
	return repository.NewPanelRepo(s.db).ListByType(ctx, tag)
}

// Count returns the number of stored panels, registry panels included.
func (s *Store) Count(ctx context.Context) (int, error) {
	return repository.NewPanelRepo(s.db).Count(ctx)
}
