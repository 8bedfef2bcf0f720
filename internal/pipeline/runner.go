package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cleanser/internal/artist"
	"cleanser/internal/dedupe"
	"cleanser/internal/export"
	"cleanser/internal/failures"
	"cleanser/internal/ingest"
	"cleanser/internal/logging"
	"cleanser/internal/normalize"
)

// Options wires a Runner.
type Options struct {
	SourcePath string
	Records    RecordSink
	Files      ArtifactSink
	Normalize  normalize.Options
	// Quarantine diverts rows that fail normalization to the invalid-row
	// artifact instead of failing the run.
	Quarantine bool
	// ExecutionTimestamp pins the run timestamp (YYYYMMDDHHMMSS).
	ExecutionTimestamp string
	Hooks              []Hook
	Logger             *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Runner executes cleansing runs.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Runner.
func New(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "pipeline"),
	}
}

// run carries the intermediate data between steps.
type run struct {
	rc      RunContext
	summary *Summary
	raws    []artist.RawRecord
	records []artist.Record
	invalid []export.InvalidRow
	part    dedupe.Partition
	norm    *normalize.Normalizer
}

// cancelCheckInterval is how many rows the row loops process between
// cancellation checks.
const cancelCheckInterval = 1024

type step struct {
	state State
	fn    func(context.Context, *run) error
}

// Run executes every step in order and returns the outcome. The returned
// summary is also handed to every hook.
func (r *Runner) Run(ctx context.Context) Summary {
	startedAt := r.opts.Now()
	summary := Summary{
		State:      StateInit,
		SourcePath: r.opts.SourcePath,
		StartedAt:  startedAt,
	}

	rc, err := NewRunContext(startedAt, r.opts.ExecutionTimestamp)
	if err != nil {
		summary.fail(StateInit, err)
		return r.finish(ctx, &summary)
	}
	summary.RunID = rc.ID
	summary.Timestamp = rc.Timestamp
	ctx = logging.WithRunID(ctx, rc.ID)

	normOpts := r.opts.Normalize
	if normOpts.Logger == nil {
		normOpts.Logger = r.logger
	}
	state := &run{
		rc:      rc,
		summary: &summary,
		norm:    normalize.New(normOpts),
	}

	logging.WithContext(ctx, r.logger).Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source_path", r.opts.SourcePath),
		logging.String("timestamp", rc.Timestamp),
	)

	steps := []step{
		{StateParsing, r.parse},
		{StateNormalizing, r.normalize},
		{StatePartitioning, r.partition},
		{StatePersisting, r.persist},
		{StateWritingFiles, r.writeFiles},
	}
	for _, st := range steps {
		if err := r.runStep(ctx, state, st); err != nil {
			summary.fail(st.state, err)
			return r.finish(ctx, &summary)
		}
	}
	summary.State = StateDone
	return r.finish(ctx, &summary)
}

func (r *Runner) runStep(ctx context.Context, state *run, st step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state.summary.State = st.state
	stepCtx := logging.WithStage(ctx, string(st.state))
	logger := logging.WithContext(stepCtx, r.logger)
	started := time.Now()
	logger.Debug("step started", logging.String(logging.FieldEventType, "step_start"))

	if err := st.fn(stepCtx, state); err != nil {
		logging.ErrorWithContext(logger, "step failed", "step_failure",
			logging.ErrorKind(failures.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return err
	}
	logger.Debug("step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.Duration("step_duration", time.Since(started)),
	)
	return nil
}

func (r *Runner) parse(ctx context.Context, state *run) error {
	fingerprint, err := ingest.Fingerprint(r.opts.SourcePath)
	if err != nil {
		return err
	}
	state.summary.SourceFingerprint = fingerprint

	reader, err := ingest.Open(r.opts.SourcePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for raw, err := range reader.Records() {
		if err != nil {
			return err
		}
		if len(state.raws)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		state.raws = append(state.raws, raw)
	}
	state.summary.TotalRows = len(state.raws)
	if replaced := reader.ReplacedRows(); replaced > 0 {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "source contains invalid UTF-8", "invalid_utf8",
			logging.Int("rows", replaced),
			logging.String(logging.FieldErrorHint, "re-export the source as UTF-8"),
			logging.String(logging.FieldImpact, "invalid bytes were replaced with U+FFFD"),
		)
	}
	return nil
}

func (r *Runner) normalize(ctx context.Context, state *run) error {
	logger := logging.WithContext(ctx, r.logger)
	state.records = make([]artist.Record, 0, len(state.raws))
	for i, raw := range state.raws {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := state.norm.Normalize(raw)
		if err == nil {
			state.records = append(state.records, rec)
			continue
		}
		if !r.opts.Quarantine || !errors.Is(err, failures.ErrTransform) {
			return err
		}
		state.invalid = append(state.invalid, export.InvalidRow{Raw: raw, Err: err})
		logger.Debug("row quarantined", logging.Int("line", raw.Line), logging.Error(err))
	}
	state.summary.InvalidRows = len(state.invalid)
	stats := state.norm.Stats()
	state.summary.NonSpotifyTrackIDs = stats.NonSpotifyTrackIDs
	if stats.NonSpotifyTrackIDs > 0 {
		logging.WarnWithContext(logger, "feat_track_ids contain non-spotify identifiers", "non_spotify_track_ids",
			logging.Int("count", stats.NonSpotifyTrackIDs),
			logging.String(logging.FieldErrorHint, "inspect the scraper output for malformed track ids"),
			logging.String(logging.FieldImpact, "identifiers are stored as given"),
		)
	}
	if len(state.invalid) > 0 {
		logging.WarnWithContext(logger, "rows quarantined", "rows_quarantined",
			logging.Int("invalid_rows", len(state.invalid)),
			logging.String(logging.FieldErrorHint, "review the data_invalid artifact"),
			logging.String(logging.FieldImpact, "quarantined rows are not persisted"),
		)
	}
	return nil
}

func (r *Runner) partition(ctx context.Context, state *run) error {
	state.part = dedupe.Split(state.records)
	state.summary.CleanRows = len(state.part.Clean)
	state.summary.RejectedRows = len(state.part.Rejected)
	dups := state.part.DuplicateIDs()
	state.summary.DuplicateIDs = len(dups)
	if len(dups) > 0 {
		logging.WithContext(ctx, r.logger).Debug("duplicate ids found",
			logging.Int("distinct_ids", len(dups)),
			logging.String("first_id", dups[0].ID),
			logging.Int("first_occurrences", dups[0].Occurrences),
		)
	}
	if got := state.part.Total() + len(state.invalid); got != state.summary.TotalRows {
		return fmt.Errorf("partition accounting mismatch: %d rows in, %d out", state.summary.TotalRows, got)
	}
	return nil
}

func (r *Runner) persist(ctx context.Context, state *run) error {
	if r.opts.Records == nil {
		return errors.New("record sink is not configured")
	}
	res, err := r.opts.Records.Persist(ctx, state.rc.ID, state.part)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, r.logger).Debug("records persisted",
		logging.Int("clean_rows", res.Clean),
		logging.Int("rejected_rows", res.Rejected),
	)
	return nil
}

func (r *Runner) writeFiles(ctx context.Context, state *run) error {
	if r.opts.Files == nil {
		return errors.New("artifact sink is not configured")
	}
	arts, err := r.opts.Files.Write(ctx, state.part, state.rc.Timestamp)
	if err != nil {
		return err
	}
	if len(state.invalid) > 0 {
		path, err := r.opts.Files.WriteInvalid(ctx, state.invalid, state.rc.Timestamp)
		if err != nil {
			r.discard(ctx, arts)
			return err
		}
		arts.InvalidPath = path
	}
	state.summary.Artifacts = arts
	return nil
}

// discard removes artifacts written earlier in a file step that later failed.
func (r *Runner) discard(ctx context.Context, arts export.Artifacts) {
	if err := r.opts.Files.Discard(arts); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "partial artifacts left behind", "artifact_discard_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the listed files before rerunning with the same timestamp"),
		)
	}
}

func (r *Runner) finish(ctx context.Context, summary *Summary) Summary {
	summary.FinishedAt = r.opts.Now()
	summary.Elapsed = summary.FinishedAt.Sub(summary.StartedAt)

	logger := logging.WithContext(ctx, r.logger)
	if summary.Succeeded() {
		logger.Info("run completed", logging.Args(append(summary.LogAttrs(),
			logging.String(logging.FieldEventType, "run_complete"))...)...)
	} else {
		logging.ErrorWithContext(logger, "run failed", "run_failed", summary.LogAttrs()...)
	}

	r.runHooks(ctx, *summary)
	return *summary
}

func hintFor(err error) string {
	switch failures.Kind(err) {
	case failures.KindSourceNotFound:
		return "check paths.source_file or CLEANSER_SOURCE_FILE"
	case failures.KindMalformedInput:
		return "fix the CSV structure at the reported line"
	case failures.KindTransform:
		return "fix the reported value or set pipeline.on_invalid_row = \"quarantine\""
	case failures.KindPersistence:
		return "check database connectivity and database.on_conflict"
	case failures.KindSinkIO:
		return "check paths.output_dir permissions and free space"
	case failures.KindCanceled:
		return "raise --timeout or investigate slow I/O"
	default:
		return "check logs for details"
	}
}
