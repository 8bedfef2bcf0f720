// Package store persists partitioned artist records and the run registry.
//
// Two dialects are supported through database/sql: SQLite via
// modernc.org/sqlite and PostgreSQL via the pgx stdlib driver. Queries are
// written with '?' placeholders and rebound per dialect with sqlx. Each
// Persist call writes the clean and reject tables inside one transaction;
// SQLite busy errors are retried with a short exponential backoff.
package store
