package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cleanser/internal/config"
	"cleanser/internal/export"
	"cleanser/internal/ingest"
	"cleanser/internal/logging"
	"cleanser/internal/normalize"
	"cleanser/internal/pipeline"
	"cleanser/internal/store"
)

const lockFileName = ".cleanser.lock"

type runFlags struct {
	source        string
	timestamp     string
	timeout       time.Duration
	skipUnchanged bool
	json          bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cleanse the source CSV into the database and output files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunFlags(cfg, flags); err != nil {
				return err
			}
			return executeRun(cmd, cfg, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.source, "source", "s", "", "Source CSV (overrides paths.source_file)")
	cmd.Flags().StringVar(&flags.timestamp, "timestamp", "", "Execution timestamp for artifact names (YYYYMMDDHHMMSS)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Abort the run after this duration (0 disables)")
	cmd.Flags().BoolVar(&flags.skipUnchanged, "skip-unchanged", false, "Skip the run when this source already completed successfully")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the run summary as JSON")
	return cmd
}

func applyRunFlags(cfg *config.Config, flags runFlags) error {
	if source := strings.TrimSpace(flags.source); source != "" {
		expanded, err := config.ExpandPath(source)
		if err != nil {
			return fmt.Errorf("resolve source path: %w", err)
		}
		cfg.Paths.SourceFile = expanded
	}
	if ts := strings.TrimSpace(flags.timestamp); ts != "" {
		normalized := config.NormalizeTimestamp(ts)
		if _, err := time.Parse(config.TimestampLayout, normalized); err != nil {
			return fmt.Errorf("--timestamp: %q is not YYYYMMDDHHMMSS", ts)
		}
		cfg.Pipeline.ExecutionTimestamp = normalized
	}
	return nil
}

func executeRun(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "cli")

	lockPath := filepath.Join(cfg.Paths.OutputDir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another cleanser run holds %s", lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.String("lock", lockPath), logging.Error(err))
		}
	}()

	runCtx := cmd.Context()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, flags.timeout)
		defer cancel()
	}

	st, err := store.Open(runCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Redacted(), err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if flags.skipUnchanged {
		prior, err := completedRunForSource(runCtx, st, cfg.Paths.SourceFile)
		if err != nil {
			return err
		}
		if prior != nil {
			logger.Info("source unchanged; run skipped",
				logging.String(logging.FieldEventType, "run_skipped"),
				logging.String("previous_run", prior.ID),
				logging.String("source_fingerprint", prior.SourceFingerprint),
			)
			if flags.json {
				return writeJSON(cmd, map[string]string{"skipped": "source unchanged", "previous_run": prior.ID})
			}
			fmt.Fprintf(out, "Source unchanged since run %s (%s); nothing to do\n", shortID(prior.ID), prior.Timestamp)
			return nil
		}
	}

	runner := pipeline.New(pipeline.Options{
		SourcePath:         cfg.Paths.SourceFile,
		Records:            st,
		Files:              export.NewWriter(cfg.Paths.OutputDir, logger),
		Normalize:          normalize.Options{ASCIIFold: cfg.Normalize.ASCIIFold},
		Quarantine:         cfg.Pipeline.Quarantine(),
		ExecutionTimestamp: cfg.Pipeline.ExecutionTimestamp,
		Hooks:              runHooks(cfg, st, logger),
		Logger:             logger,
	})
	summary := runner.Run(runCtx)

	if flags.json {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		renderSummary(out, summary)
	}
	if !summary.Succeeded() {
		return fmt.Errorf("run failed at %s: %w", summary.FailedStep, summary.Err)
	}
	return nil
}

func runHooks(cfg *config.Config, st *store.Store, logger *slog.Logger) []pipeline.Hook {
	hooks := []pipeline.Hook{
		pipeline.RegistryHook(st),
		pipeline.ArchiveHook(cfg.Paths.ArchiveDir),
		pipeline.BackupHook(cfg.Paths.BackupDir),
		pipeline.PruneHook(logger, cfg.Paths.OutputDir, cfg.Pipeline.RetentionDays),
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" && cfg.Logging.RetentionDays > 0 {
		hooks = append(hooks, logRetentionHook(logger, dir, cfg.Logging.RetentionDays))
	}
	return hooks
}

// logRetentionHook removes rotated log files older than the retention window.
// The live log file is never touched.
func logRetentionHook(logger *slog.Logger, dir string, days int) pipeline.Hook {
	return pipeline.Hook{
		Name: "log-retention",
		Run: func(context.Context, pipeline.Summary) error {
			export.Prune(logger, days, export.RetentionTarget{
				Dir:     dir,
				Pattern: "*.log*",
				Exclude: []string{filepath.Join(dir, logging.LogFileName)},
			})
			return nil
		},
	}
}

func completedRunForSource(ctx context.Context, st *store.Store, source string) (*store.Run, error) {
	fingerprint, err := ingest.Fingerprint(source)
	if err != nil {
		// Let the pipeline report the missing or unreadable source.
		return nil, nil
	}
	prior, err := st.FindCompletedByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("look up previous runs: %w", err)
	}
	return prior, nil
}
