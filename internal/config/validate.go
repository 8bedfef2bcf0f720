package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the run timestamp format used in artifact names.
const TimestampLayout = "20060102150405"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceFile) == "" {
		return errors.New("paths.source_file must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	db := c.Database
	switch db.Driver {
	case DriverSQLite:
		if strings.TrimSpace(db.Path) == "" {
			return errors.New("database.path must be set when database.driver is sqlite")
		}
	case DriverPostgres:
		if db.Host == "" {
			return errors.New("database.host must be set when database.driver is postgres (or set DB_HOST)")
		}
		if db.Port <= 0 || db.Port > 65535 {
			return fmt.Errorf("database.port must be between 1 and 65535, got %d", db.Port)
		}
		if db.Name == "" {
			return errors.New("database.name must be set when database.driver is postgres (or set DB_NAME)")
		}
	default:
		return fmt.Errorf("database.driver: unsupported value %q (use sqlite or postgres)", db.Driver)
	}
	switch db.OnConflict {
	case ConflictOverwrite, ConflictReject:
	default:
		return fmt.Errorf("database.on_conflict: unsupported value %q (use overwrite or reject)", db.OnConflict)
	}
	if db.ConnMaxLifetimeSeconds < 0 {
		return errors.New("database.conn_max_lifetime_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.OnInvalidRow {
	case InvalidRowFail, InvalidRowQuarantine:
	default:
		return fmt.Errorf("pipeline.on_invalid_row: unsupported value %q (use fail or quarantine)", c.Pipeline.OnInvalidRow)
	}
	if ts := c.Pipeline.ExecutionTimestamp; ts != "" {
		if _, err := time.Parse(TimestampLayout, ts); err != nil {
			return fmt.Errorf("pipeline.execution_timestamp: %q is not YYYYMMDDHHMMSS", ts)
		}
	}
	return nil
}
