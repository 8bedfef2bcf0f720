// Package export writes run artifacts to the output directory.
//
// Clean records go to data_<ts>.json and rejected duplicates to
// data_reject_<ts>.csv. Every file is written to a temporary sibling and
// renamed into place only after it has been flushed and synced, so a failed
// write never leaves a partial artifact behind. The package also copies
// artifacts into a timestamped archive, backs up the source file, and prunes
// artifacts past their retention window.
package export
