package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cleanser/internal/export"
	"cleanser/internal/logging"
	"cleanser/internal/store"
)

// Hook runs after a run reaches a terminal state. Hooks are best effort: a
// failing hook is logged and never changes the run outcome.
type Hook struct {
	Name string
	Run  func(ctx context.Context, summary Summary) error
}

// RunRecorder stores run registry entries. *store.Store satisfies it.
type RunRecorder interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// RegistryHook records every run, successful or not.
func RegistryHook(recorder RunRecorder) Hook {
	return Hook{
		Name: "registry",
		Run: func(ctx context.Context, s Summary) error {
			if recorder == nil {
				return errors.New("run recorder is not configured")
			}
			return recorder.RecordRun(ctx, RegistryEntry(s))
		},
	}
}

// RegistryEntry converts a summary into a registry row.
func RegistryEntry(s Summary) store.Run {
	return store.Run{
		ID:                s.RunID,
		Timestamp:         s.Timestamp,
		SourcePath:        s.SourcePath,
		SourceFingerprint: s.SourceFingerprint,
		State:             string(s.State),
		FailedStep:        string(s.FailedStep),
		Error:             s.Error,
		TotalRows:         s.TotalRows,
		CleanRows:         s.CleanRows,
		RejectedRows:      s.RejectedRows,
		InvalidRows:       s.InvalidRows,
		Elapsed:           s.Elapsed,
		JSONPath:          s.Artifacts.JSONPath,
		CSVPath:           s.Artifacts.CSVPath,
		InvalidPath:       s.Artifacts.InvalidPath,
		StartedAt:         s.StartedAt,
		FinishedAt:        s.FinishedAt,
	}
}

// ArchiveHook validates the artifacts of a successful run and copies them
// into <dir>/<timestamp>/. Empty dir disables the hook.
func ArchiveHook(dir string) Hook {
	return Hook{
		Name: "archive",
		Run: func(_ context.Context, s Summary) error {
			if !s.Succeeded() || strings.TrimSpace(dir) == "" {
				return nil
			}
			if err := export.Validate(s.Artifacts); err != nil {
				return err
			}
			_, err := export.Archive(s.Artifacts, dir)
			return err
		},
	}
}

// BackupHook copies the source of a successful run into dir.
func BackupHook(dir string) Hook {
	return Hook{
		Name: "backup",
		Run: func(_ context.Context, s Summary) error {
			if !s.Succeeded() || strings.TrimSpace(dir) == "" {
				return nil
			}
			_, err := export.BackupSource(s.SourcePath, dir, s.Timestamp)
			return err
		},
	}
}

// PruneHook removes artifacts older than retentionDays from outputDir,
// keeping the ones this run produced.
func PruneHook(logger *slog.Logger, outputDir string, retentionDays int) Hook {
	if logger == nil {
		logger = logging.NewNop()
	}
	return Hook{
		Name: "prune",
		Run: func(_ context.Context, s Summary) error {
			if retentionDays <= 0 {
				return nil
			}
			targets := export.ArtifactTargets(outputDir)
			keep := s.Artifacts.Paths()
			for i := range targets {
				targets[i].Exclude = keep
			}
			removed := export.Prune(logger, retentionDays, targets...)
			if len(removed) > 0 {
				logger.Info("pruned expired artifacts",
					logging.String(logging.FieldEventType, "artifacts_pruned"),
					logging.Int("removed", len(removed)),
				)
			}
			return nil
		},
	}
}

func (r *Runner) runHooks(ctx context.Context, s Summary) {
	if len(r.opts.Hooks) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, r.logger)
	for _, hook := range r.opts.Hooks {
		if hook.Run == nil {
			continue
		}
		if err := hook.Run(ctx, s); err != nil {
			logging.WarnWithContext(logger, "post-run hook failed", "hook_failed",
				logging.String("hook", hook.Name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the run outcome is unaffected; rerun the hook step manually"),
				logging.String(logging.FieldImpact, hook.Name+" skipped for this run"),
			)
		}
	}
}
