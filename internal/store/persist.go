package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"cleanser/internal/artist"
	"cleanser/internal/config"
	"cleanser/internal/dedupe"
	"cleanser/internal/failures"
)

const (
	// TableClean holds the first occurrence of every artist id.
	TableClean = "data"
	// TableReject holds every later occurrence.
	TableReject = "data_reject"
)

const (
	pgUniqueViolation    = "23505"
	sqliteConstraintCode = 19
	conflictLookupChunk  = 500
)

var recordColumns = []string{
	"dates",
	"ids",
	"names",
	"monthly_listeners",
	"popularity",
	"followers",
	"genres",
	"first_release",
	"last_release",
	"num_releases",
	"num_tracks",
	"playlists_found",
	"feat_track_ids",
	"run_id",
}

// PersistResult reports how many rows each table received.
type PersistResult struct {
	Clean    int
	Rejected int
}

func insertSQL(table, suffix string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		table, strings.Join(recordColumns, ", "), placeholders, suffix)
}

func overwriteSuffix() string {
	sets := make([]string, 0, len(recordColumns))
	for _, col := range recordColumns {
		if col == "ids" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	return " ON CONFLICT (ids) DO UPDATE SET " + strings.Join(sets, ", ")
}

func recordArgs(rec artist.Record, runID string) []any {
	return []any{
		rec.Dates.String(),
		rec.IDs,
		rec.Names,
		rec.MonthlyListeners,
		rec.Popularity,
		rec.Followers,
		artist.FormatList(rec.Genres),
		rec.FirstRelease,
		rec.LastRelease,
		rec.NumReleases,
		rec.NumTracks,
		rec.PlaylistsFound,
		artist.FormatList(rec.FeatTrackIDs),
		runID,
	}
}

// Persist writes the clean records to the data table and the rejected
// records to the reject table in a single transaction. Under the reject
// conflict policy a clean id already present in the table aborts the whole
// write with a PersistenceError listing the conflicting ids.
func (s *Store) Persist(ctx context.Context, runID string, part dedupe.Partition) (PersistResult, error) {
	ctx = ensureContext(ctx)
	var result PersistResult
	err := retryOnBusy(ctx, func() error {
		var txErr error
		result, txErr = s.persistTx(ctx, runID, part)
		return txErr
	})
	if err == nil {
		return result, nil
	}

	var unique *uniqueViolation
	if errors.As(err, &unique) {
		ids, lookupErr := s.existingIDs(ctx, part.Clean)
		if lookupErr != nil || len(ids) == 0 {
			ids = []string{unique.id}
		}
		return PersistResult{}, &failures.PersistenceError{
			Table: TableClean,
			Op:    "insert",
			IDs:   ids,
			Err:   unique.err,
		}
	}
	var persistErr *failures.PersistenceError
	if errors.As(err, &persistErr) {
		return PersistResult{}, err
	}
	return PersistResult{}, &failures.PersistenceError{Table: TableClean, Op: "transaction", Err: err}
}

func (s *Store) persistTx(ctx context.Context, runID string, part dedupe.Partition) (PersistResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return PersistResult{}, fmt.Errorf("begin persist tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	suffix := ""
	if s.onConflict == config.ConflictOverwrite {
		suffix = overwriteSuffix()
	}
	clean, err := tx.PreparexContext(ctx, tx.Rebind(insertSQL(TableClean, suffix)))
	if err != nil {
		return PersistResult{}, &failures.PersistenceError{Table: TableClean, Op: "prepare", Err: err}
	}
	defer clean.Close()

	for _, rec := range part.Clean {
		if _, err := clean.ExecContext(ctx, recordArgs(rec, runID)...); err != nil {
			if isUniqueViolation(err) {
				return PersistResult{}, &uniqueViolation{id: rec.IDs, err: err}
			}
			if isSQLiteBusy(err) {
				return PersistResult{}, err
			}
			return PersistResult{}, &failures.PersistenceError{Table: TableClean, Op: "insert", IDs: []string{rec.IDs}, Err: err}
		}
	}

	if len(part.Rejected) > 0 {
		reject, err := tx.PreparexContext(ctx, tx.Rebind(insertSQL(TableReject, "")))
		if err != nil {
			return PersistResult{}, &failures.PersistenceError{Table: TableReject, Op: "prepare", Err: err}
		}
		defer reject.Close()
		for _, rec := range part.Rejected {
			if _, err := reject.ExecContext(ctx, recordArgs(rec, runID)...); err != nil {
				if isSQLiteBusy(err) {
					return PersistResult{}, err
				}
				return PersistResult{}, &failures.PersistenceError{Table: TableReject, Op: "insert", IDs: []string{rec.IDs}, Err: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		if isSQLiteBusy(err) {
			return PersistResult{}, err
		}
		return PersistResult{}, &failures.PersistenceError{Table: TableClean, Op: "commit", Err: err}
	}
	return PersistResult{Clean: len(part.Clean), Rejected: len(part.Rejected)}, nil
}

// existingIDs returns the ids from records that are already stored in the
// clean table.
func (s *Store) existingIDs(ctx context.Context, records []artist.Record) ([]string, error) {
	var found []string
	for start := 0; start < len(records); start += conflictLookupChunk {
		end := min(start+conflictLookupChunk, len(records))
		ids := make([]string, 0, end-start)
		for _, rec := range records[start:end] {
			ids = append(ids, rec.IDs)
		}
		query, args, err := sqlx.In("SELECT ids FROM data WHERE ids IN (?) ORDER BY ids", ids)
		if err != nil {
			return nil, err
		}
		var chunk []string
		if err := s.db.SelectContext(ctx, &chunk, s.db.Rebind(query), args...); err != nil {
			return nil, err
		}
		found = append(found, chunk...)
	}
	return found, nil
}

type uniqueViolation struct {
	id  string
	err error
}

func (u *uniqueViolation) Error() string {
	return fmt.Sprintf("duplicate id %q: %v", u.id, u.err)
}

func (u *uniqueViolation) Unwrap() error { return u.err }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteConstraintCode {
		return strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY KEY")
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
