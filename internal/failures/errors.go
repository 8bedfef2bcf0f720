package failures

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceNotFound = errors.New("source not found")
	ErrMalformedInput = errors.New("malformed input")
	ErrTransform      = errors.New("transform error")
	ErrPersistence    = errors.New("persistence error")
	ErrSinkIO         = errors.New("sink io error")
)

// Kinds returned by Kind.
const (
	KindSourceNotFound = "source_not_found"
	KindMalformedInput = "malformed_input"
	KindTransform      = "transform"
	KindPersistence    = "persistence"
	KindSinkIO         = "sink_io"
	KindCanceled       = "canceled"
	KindUnknown        = "unknown"
)

// Classifier is implemented by every error in this package.
type Classifier interface {
	ErrorKind() string
}

// Kind classifies err by walking its chain.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var classifier Classifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}

// SourceNotFoundError reports a missing input file.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source file not found: %s", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error     { return e.Err }
func (e *SourceNotFoundError) Is(t error) bool   { return t == ErrSourceNotFound }
func (e *SourceNotFoundError) ErrorKind() string { return KindSourceNotFound }

// MalformedInputError reports a header or row shape that does not match the
// expected schema. Line is 0 when the problem is not tied to a row.
type MalformedInputError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed input")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedInputError) Unwrap() error     { return e.Err }
func (e *MalformedInputError) Is(t error) bool   { return t == ErrMalformedInput }
func (e *MalformedInputError) ErrorKind() string { return KindMalformedInput }

// TransformError identifies a field value that could not be normalized.
type TransformError struct {
	Line   int
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("transform %s=%q", e.Field, e.Value)
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error     { return e.Err }
func (e *TransformError) Is(t error) bool   { return t == ErrTransform }
func (e *TransformError) ErrorKind() string { return KindTransform }

// PersistenceError reports a database failure for one table and operation.
// IDs lists the offending record identifiers when a constraint was violated.
type PersistenceError struct {
	Table string
	Op    string
	IDs   []string
	Err   error
}

func (e *PersistenceError) Error() string {
	var b strings.Builder
	b.WriteString("persist")
	if e.Table != "" {
		b.WriteString(" ")
		b.WriteString(e.Table)
	}
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " (ids %s)", strings.Join(e.IDs, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PersistenceError) Unwrap() error     { return e.Err }
func (e *PersistenceError) Is(t error) bool   { return t == ErrPersistence }
func (e *PersistenceError) ErrorKind() string { return KindPersistence }

// SinkIOError reports a failed artifact write.
type SinkIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *SinkIOError) Error() string {
	msg := "write artifact"
	if e.Op != "" {
		msg = e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SinkIOError) Unwrap() error     { return e.Err }
func (e *SinkIOError) Is(t error) bool   { return t == ErrSinkIO }
func (e *SinkIOError) ErrorKind() string { return KindSinkIO }
