// Package normalize converts raw CSV rows into typed artist records.
//
// Every column has a fixed coercion rule: calendar dates are reformatted to
// YYYY-MM-DD, names are trimmed and upper-cased, list columns go through a
// small list-literal parser, counts become integers, and release columns are
// reduced to a four-digit year. A value that cannot be coerced produces a
// failures.TransformError naming the field and the offending raw text.
//
// Rules are idempotent: normalizing a record's canonical text (Record.Raw)
// returns the same record.
package normalize
