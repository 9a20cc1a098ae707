package database

import (
	"context"

	"github.com/jask/panels/internal/panel"
)

// Seeder is the part of the store SeedDefaults needs.
type Seeder interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, id, tag string) error
}

// SeedDefaults ensures the root shelf exists for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, s Seeder, root string) error {
	if root == "" {
		return panel.ErrEmptyID
	}
	ok, err := s.Exists(ctx, root)
	if err != nil || ok {
		return err
	}
	return s.Create(ctx, root, "vshelf")
}
