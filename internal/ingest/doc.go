// Package ingest reads the artist source CSV into raw records.
//
// Open validates the header against the fixed thirteen-column schema before
// any rows are produced; Records then yields rows lazily in file order. The
// reader strips a UTF-8 byte order mark and replaces invalid UTF-8 sequences
// with U+FFFD rather than failing the run.
package ingest
