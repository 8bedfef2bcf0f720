// Package artist defines the artist record shapes that flow through the
// cleansing pipeline.
//
// RawRecord holds the thirteen source columns exactly as read from CSV.
// Record is the normalized, typed form shared by the deduplicator and both
// sinks. Record.Raw renders the canonical textual form used by the reject CSV,
// the database list columns, and normalization round trips.
package artist
