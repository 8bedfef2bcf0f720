package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"cleanser/internal/artist"
	"cleanser/internal/failures"
)

// Reader yields raw records from a validated source file.
type Reader struct {
	path     string
	file     *os.File
	csv      *csv.Reader
	rows     int
	replaced int
	done     bool
}

// Open opens path and validates its header. The caller must Close the reader.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &failures.SourceNotFoundError{Path: path, Err: err}
		}
		return nil, &failures.MalformedInputError{Path: path, Reason: "open source", Err: err}
	}
	if info, statErr := file.Stat(); statErr == nil && info.IsDir() {
		_ = file.Close()
		return nil, &failures.SourceNotFoundError{Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	decoded := transform.NewReader(file, unicode.UTF8BOM.NewDecoder())
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	r := &Reader{path: path, file: file, csv: cr}
	if err := r.readHeader(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return &failures.MalformedInputError{Path: r.path, Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return &failures.MalformedInputError{Path: r.path, Line: 1, Reason: "read header", Err: err}
	}
	return ValidateHeader(r.path, header)
}

// ValidateHeader checks that header names the expected columns in order.
// Surrounding whitespace on each name is ignored.
func ValidateHeader(path string, header []string) error {
	if len(header) != artist.NumColumns {
		return &failures.MalformedInputError{
			Path:   path,
			Line:   1,
			Reason: fmt.Sprintf("header has %d columns, expected %d (%s)", len(header), artist.NumColumns, artist.HeaderString()),
		}
	}
	for i, name := range header {
		if strings.TrimSpace(name) != artist.Columns[i] {
			return &failures.MalformedInputError{
				Path:   path,
				Line:   1,
				Reason: fmt.Sprintf("header column %d is %q, expected %q", i+1, strings.TrimSpace(name), artist.Columns[i]),
			}
		}
	}
	return nil
}

// Records yields each data row in file order. Iteration stops after the first
// error, which is yielded with a zero record.
func (r *Reader) Records() iter.Seq2[artist.RawRecord, error] {
	return func(yield func(artist.RawRecord, error) bool) {
		for !r.done {
			fields, err := r.csv.Read()
			if errors.Is(err, io.EOF) {
				r.done = true
				return
			}
			if err != nil {
				r.done = true
				line := 0
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					line = parseErr.StartLine
				}
				yield(artist.RawRecord{}, &failures.MalformedInputError{Path: r.path, Line: line, Reason: "parse row", Err: err})
				return
			}
			line, _ := r.csv.FieldPos(0)
			if len(fields) != artist.NumColumns {
				r.done = true
				yield(artist.RawRecord{}, &failures.MalformedInputError{
					Path:   r.path,
					Line:   line,
					Reason: fmt.Sprintf("row has %d fields, expected %d", len(fields), artist.NumColumns),
				})
				return
			}
			raw := artist.RawRecord{Line: line}
			copy(raw.Fields[:], fields)
			if containsReplacement(fields) {
				r.replaced++
			}
			r.rows++
			if !yield(raw, nil) {
				return
			}
		}
	}
}

// Rows reports how many data rows have been yielded so far.
func (r *Reader) Rows() int { return r.rows }

// ReplacedRows reports how many rows contained invalid UTF-8 that was replaced.
func (r *Reader) ReplacedRows() int { return r.replaced }

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadAll opens path and collects every record.
func ReadAll(path string) ([]artist.RawRecord, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []artist.RawRecord
	for raw, err := range r.Records() {
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func containsReplacement(fields []string) bool {
	for _, f := range fields {
		if strings.ContainsRune(f, utf8.RuneError) {
			return true
		}
	}
	return false
}
