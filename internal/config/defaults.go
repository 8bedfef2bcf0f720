package config

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Clean-table conflict policies.
const (
	ConflictOverwrite = "overwrite"
	ConflictReject    = "reject"
)

// Invalid-row policies.
const (
	InvalidRowFail       = "fail"
	InvalidRowQuarantine = "quarantine"
)

const (
	defaultSourceFile        = "/source/scrap.csv"
	defaultOutputDir         = "/target"
	defaultLogDir            = "~/.local/share/cleanser/logs"
	defaultSQLitePath        = "~/.local/share/cleanser/cleanser.db"
	defaultDBDriver          = DriverPostgres
	defaultDBHost            = "postgres"
	defaultDBPort            = 5432
	defaultDBName            = "data_cleansing"
	defaultDBUser            = "postgres"
	defaultDBSSLMode         = "disable"
	defaultOnConflict        = ConflictOverwrite
	defaultMaxOpenConns      = 4
	defaultMaxIdleConns      = 2
	defaultConnMaxLifetime   = 300
	defaultConnectTimeout    = 10
	defaultOnInvalidRow      = InvalidRowFail
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultOutputRetainDays  = 0
	executionTimestampDigits = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceFile: defaultSourceFile,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Database: Database{
			Driver:                 defaultDBDriver,
			Host:                   defaultDBHost,
			Port:                   defaultDBPort,
			Name:                   defaultDBName,
			User:                   defaultDBUser,
			SSLMode:                defaultDBSSLMode,
			Path:                   defaultSQLitePath,
			OnConflict:             defaultOnConflict,
			MaxOpenConns:           defaultMaxOpenConns,
			MaxIdleConns:           defaultMaxIdleConns,
			ConnMaxLifetimeSeconds: defaultConnMaxLifetime,
			ConnectTimeoutSeconds:  defaultConnectTimeout,
		},
		Pipeline: Pipeline{
			OnInvalidRow:  defaultOnInvalidRow,
			RetentionDays: defaultOutputRetainDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
