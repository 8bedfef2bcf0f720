// Package failures defines the error taxonomy shared by every pipeline step.
//
// Each concrete error type carries the context needed to diagnose a failed
// run (paths, line numbers, field names, offending values, database tables)
// and matches one of the exported sentinel markers through errors.Is. Kind
// lets callers classify failures without type switches.
package failures
