package store

import (
	"context"
	"fmt"
)

// Counts reports the number of rows stored in each record table.
type Counts struct {
	Clean    int64 `json:"data"`
	Rejected int64 `json:"data_reject"`
}

// Counts returns the current row count of the clean and reject tables.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	ctx = ensureContext(ctx)
	var out Counts
	if err := s.db.GetContext(ctx, &out.Clean, "SELECT COUNT(*) FROM "+TableClean); err != nil {
		return Counts{}, fmt.Errorf("count %s: %w", TableClean, err)
	}
	if err := s.db.GetContext(ctx, &out.Rejected, "SELECT COUNT(*) FROM "+TableReject); err != nil {
		return Counts{}, fmt.Errorf("count %s: %w", TableReject, err)
	}
	return out, nil
}
