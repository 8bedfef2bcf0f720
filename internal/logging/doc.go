// Package logging assembles the structured slog loggers used by the cleanser
// CLI and pipeline.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// and exposes context-aware helpers so pipeline steps tag every line with the
// run id and current step. A no-op logger is provided for tests and for
// components constructed without one.
package logging
