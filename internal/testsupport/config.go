package testsupport

import (
	"path/filepath"
	"testing"

	"cleanser/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The database is a SQLite file under the temp root.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceFile = filepath.Join(base, "source", "scrap.csv")
	cfgVal.Paths.OutputDir = filepath.Join(base, "target")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ArchiveDir = ""
	cfgVal.Paths.BackupDir = ""
	cfgVal.Database.Driver = config.DriverSQLite
	cfgVal.Database.Path = filepath.Join(base, "db", "cleanser.db")
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithConflictPolicy sets database.on_conflict.
func WithConflictPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Database.OnConflict = policy
	}
}

// WithQuarantine diverts invalid rows instead of failing the run.
func WithQuarantine() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.OnInvalidRow = config.InvalidRowQuarantine
	}
}

// WithExecutionTimestamp pins the run timestamp.
func WithExecutionTimestamp(ts string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.ExecutionTimestamp = ts
	}
}

// WithArchive enables artifact archiving and source backups under the temp root.
func WithArchive() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ArchiveDir = filepath.Join(b.baseDir, "archive")
		b.cfg.Paths.BackupDir = filepath.Join(b.baseDir, "backup")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
