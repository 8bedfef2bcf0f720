package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

// applyEnvOverrides lets the environment override file values. The variable
// names match the container contract used by the scheduler.
func (c *Config) applyEnvOverrides() {
	overrideString(&c.Paths.SourceFile, "CLEANSER_SOURCE_FILE")
	overrideString(&c.Paths.OutputDir, "CLEANSER_OUTPUT_DIR")
	overrideString(&c.Paths.LogDir, "CLEANSER_LOG_DIR")
	overrideString(&c.Database.Driver, "DB_DRIVER")
	overrideString(&c.Database.Host, "DB_HOST")
	overrideInt(&c.Database.Port, "DB_PORT")
	overrideString(&c.Database.Name, "DB_NAME")
	overrideString(&c.Database.User, "DB_USER")
	overrideString(&c.Database.Password, "DB_PASSWORD")
	overrideString(&c.Database.SSLMode, "DB_SSLMODE")
	overrideString(&c.Database.Path, "DB_PATH")
	overrideString(&c.Pipeline.ExecutionTimestamp, "EXECUTION_DATE_NODASH")
	overrideString(&c.Logging.Level, "LOG_LEVEL")
	overrideString(&c.Logging.Format, "LOG_FORMAT")
}

func overrideString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

// overrideInt ignores unparsable values; Validate reports the resulting
// config if the file value is also unusable.
func overrideInt(target *int, key string) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		*target = parsed
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SourceFile) == "" {
		c.Paths.SourceFile = defaultSourceFile
	}
	if c.Paths.SourceFile, err = expandPath(c.Paths.SourceFile); err != nil {
		return fmt.Errorf("paths.source_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(strings.TrimSpace(c.Paths.ArchiveDir)); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.BackupDir, err = expandPath(strings.TrimSpace(c.Paths.BackupDir)); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "":
		c.Database.Driver = defaultDBDriver
	case "sqlite3":
		c.Database.Driver = DriverSQLite
	case "postgresql", "pgx":
		c.Database.Driver = DriverPostgres
	}
	c.Database.Host = strings.TrimSpace(c.Database.Host)
	c.Database.Name = strings.TrimSpace(c.Database.Name)
	c.Database.User = strings.TrimSpace(c.Database.User)
	c.Database.SSLMode = strings.TrimSpace(c.Database.SSLMode)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = defaultDBSSLMode
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = defaultSQLitePath
	}
	var err error
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	c.Database.OnConflict = strings.ToLower(strings.TrimSpace(c.Database.OnConflict))
	if c.Database.OnConflict == "" {
		c.Database.OnConflict = defaultOnConflict
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if c.Database.MaxIdleConns < 0 {
		c.Database.MaxIdleConns = 0
	}
	if c.Database.ConnectTimeoutSeconds <= 0 {
		c.Database.ConnectTimeoutSeconds = defaultConnectTimeout
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.OnInvalidRow = strings.ToLower(strings.TrimSpace(c.Pipeline.OnInvalidRow))
	if c.Pipeline.OnInvalidRow == "" {
		c.Pipeline.OnInvalidRow = defaultOnInvalidRow
	}
	c.Pipeline.ExecutionTimestamp = NormalizeTimestamp(c.Pipeline.ExecutionTimestamp)
	if c.Pipeline.RetentionDays < 0 {
		c.Pipeline.RetentionDays = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// NormalizeTimestamp reduces a scheduler timestamp such as Airflow's
// ts_nodash ("20250614T101520") to its digits ("20250614101520"). Values
// that do not contain exactly fourteen digits are returned trimmed so that
// validation can report them.
func NormalizeTimestamp(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, trimmed)
	// Drop fractional seconds ("20250614T101520.123Z").
	if len(digits) > executionTimestampDigits {
		if idx := strings.IndexAny(trimmed, ".,"); idx > 0 {
			head := strings.Map(func(r rune) rune {
				if unicode.IsDigit(r) {
					return r
				}
				return -1
			}, trimmed[:idx])
			if len(head) == executionTimestampDigits {
				return head
			}
		}
	}
	if len(digits) == executionTimestampDigits {
		return digits
	}
	return trimmed
}
