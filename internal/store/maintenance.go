package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/panels/internal/database"
	"github.com/jask/panels/internal/database/repository"
)

// Reset wipes every panel, edge and attribute table. The schema stays, so
// the store keeps working; types are registered again on next use.
func (s *Store) Reset(ctx context.Context) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewSlotRepo(tx).DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset slots: %w", err)
		}
		attrs := repository.NewAttributeRepo(tx)
		for _, tag := range s.types.Tags() {
			if err := attrs.DropTable(ctx, tag); err != nil {
				return fmt.Errorf("reset table %s: %w", tag, err)
			}
		}
		return repository.NewPanelRepo(tx).DeleteAll(ctx)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.registered = make(map[string]bool)
	s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		s.log.Warn("vacuum after reset", zap.Error(err))
	}
	s.log.Info("store reset", zap.Int("tables", len(s.types.Tags())))
	return nil
}
