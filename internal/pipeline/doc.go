// Package pipeline runs one cleansing pass over the source file.
//
// A Runner walks a fixed sequence of steps: parse the CSV, normalize every
// row, split clean records from duplicates, persist both sets, then write the
// file artifacts. Steps run strictly in order and the first failure stops
// the run, so no sink is touched after an earlier step has failed. The
// outcome of every run, successful or not, is reported as a Summary.
//
// Sinks are interfaces so callers can substitute the database or file
// writers. Post-run hooks (registry, archive, backup, retention) execute
// after the steps and only log their own failures.
package pipeline
