package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one registry entry describing a pipeline invocation.
type Run struct {
	ID                string        `json:"id"`
	Timestamp         string        `json:"run_ts"`
	SourcePath        string        `json:"source_path"`
	SourceFingerprint string        `json:"source_fingerprint"`
	State             string        `json:"state"`
	FailedStep        string        `json:"failed_step,omitempty"`
	Error             string        `json:"error,omitempty"`
	TotalRows         int           `json:"total_rows"`
	CleanRows         int           `json:"clean_rows"`
	RejectedRows      int           `json:"rejected_rows"`
	InvalidRows       int           `json:"invalid_rows"`
	Elapsed           time.Duration `json:"elapsed_ns"`
	JSONPath          string        `json:"json_path,omitempty"`
	CSVPath           string        `json:"csv_path,omitempty"`
	InvalidPath       string        `json:"invalid_path,omitempty"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at"`
}

type runRow struct {
	ID                string `db:"id"`
	Timestamp         string `db:"run_ts"`
	SourcePath        string `db:"source_path"`
	SourceFingerprint string `db:"source_fingerprint"`
	State             string `db:"state"`
	FailedStep        string `db:"failed_step"`
	Error             string `db:"error"`
	TotalRows         int    `db:"total_rows"`
	CleanRows         int    `db:"clean_rows"`
	RejectedRows      int    `db:"rejected_rows"`
	InvalidRows       int    `db:"invalid_rows"`
	ElapsedMS         int64  `db:"elapsed_ms"`
	JSONPath          string `db:"json_path"`
	CSVPath           string `db:"csv_path"`
	InvalidPath       string `db:"invalid_path"`
	StartedAt         string `db:"started_at"`
	FinishedAt        string `db:"finished_at"`
}

const runColumns = `id, run_ts, source_path, source_fingerprint, state, failed_step, error,
    total_rows, clean_rows, rejected_rows, invalid_rows, elapsed_ms,
    json_path, csv_path, invalid_path, started_at, finished_at`

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStateDone marks a run that completed every step.
const RunStateDone = "DONE"

func (r runRow) toRun() Run {
	return Run{
		ID:                r.ID,
		Timestamp:         r.Timestamp,
		SourcePath:        r.SourcePath,
		SourceFingerprint: r.SourceFingerprint,
		State:             r.State,
		FailedStep:        r.FailedStep,
		Error:             r.Error,
		TotalRows:         r.TotalRows,
		CleanRows:         r.CleanRows,
		RejectedRows:      r.RejectedRows,
		InvalidRows:       r.InvalidRows,
		Elapsed:           time.Duration(r.ElapsedMS) * time.Millisecond,
		JSONPath:          r.JSONPath,
		CSVPath:           r.CSVPath,
		InvalidPath:       r.InvalidPath,
		StartedAt:         parseTime(r.StartedAt),
		FinishedAt:        parseTime(r.FinishedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RecordRun inserts or replaces the registry entry for run.ID.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("record run: empty run id")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            state = excluded.state,
            failed_step = excluded.failed_step,
            error = excluded.error,
            total_rows = excluded.total_rows,
            clean_rows = excluded.clean_rows,
            rejected_rows = excluded.rejected_rows,
            invalid_rows = excluded.invalid_rows,
            elapsed_ms = excluded.elapsed_ms,
            json_path = excluded.json_path,
            csv_path = excluded.csv_path,
            invalid_path = excluded.invalid_path,
            finished_at = excluded.finished_at`,
		run.ID,
		run.Timestamp,
		run.SourcePath,
		run.SourceFingerprint,
		run.State,
		run.FailedStep,
		run.Error,
		run.TotalRows,
		run.CleanRows,
		run.RejectedRows,
		run.InvalidRows,
		run.Elapsed.Milliseconds(),
		run.JSONPath,
		run.CSVPath,
		run.InvalidPath,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toRun())
	}
	return runs, nil
}

// FindCompletedByFingerprint returns the latest completed run for a source
// fingerprint, or nil when none exists.
func (s *Store) FindCompletedByFingerprint(ctx context.Context, fingerprint string) (*Run, error) {
	ctx = ensureContext(ctx)
	if fingerprint == "" {
		return nil, nil
	}
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		"SELECT "+runColumns+" FROM runs WHERE source_fingerprint = ? AND state = ? ORDER BY started_at DESC LIMIT 1",
	), fingerprint, RunStateDone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find run by fingerprint: %w", err)
	}
	run := row.toRun()
	return &run, nil
}
