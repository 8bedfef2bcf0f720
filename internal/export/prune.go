package export

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cleanser/internal/logging"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// ArtifactTargets returns the retention targets covering every artifact kind
// written to dir.
func ArtifactTargets(dir string) []RetentionTarget {
	return []RetentionTarget{
		{Dir: dir, Pattern: CleanPrefix + "*.json"},
		{Dir: dir, Pattern: RejectPrefix + "*.csv"},
		{Dir: dir, Pattern: InvalidPrefix + "*.csv"},
	}
}

// Prune removes files matching the provided targets that are older than
// retentionDays and returns the removed paths. A retentionDays value of 0
// disables pruning.
func Prune(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) []string {
	if retentionDays <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	exclusions := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				if abs, err := filepath.Abs(trimmed); err == nil {
					exclusions[abs] = struct{}{}
				}
			}
		}
	}

	var removed []string
	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if pat := strings.TrimSpace(target.Pattern); pat != "" {
				matched, err := filepath.Match(pat, name)
				if err != nil || !matched {
					continue
				}
			}
			fullPath := filepath.Join(dir, name)
			if abs, err := filepath.Abs(fullPath); err == nil {
				fullPath = abs
			}
			if _, skip := exclusions[fullPath]; skip {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				logging.WarnWithContext(logger, "retention remove failed; file remains", "retention_failed",
					logging.String("path", fullPath),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check file permissions and directory ownership"),
				)
				continue
			}
			removed = append(removed, fullPath)
			logger.Info("file pruned",
				logging.String("path", fullPath),
				logging.String(logging.FieldEventType, "file_pruned"),
			)
		}
	}
	return removed
}
