// Package config loads, normalizes, and validates cleanser configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides such as
// DB_HOST or EXECUTION_DATE_NODASH. The Config value is built once at startup
// and passed by pointer to every component; nothing else in the module reads
// the process environment.
package config
