package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"cleanser/internal/artist"
	"cleanser/internal/dedupe"
	"cleanser/internal/failures"
	"cleanser/internal/logging"
)

// Writer produces the per-run artifacts in Dir.
type Writer struct {
	Dir    string
	Logger *slog.Logger
}

// NewWriter constructs a Writer for dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{Dir: dir, Logger: logger}
}

type cleanDocument struct {
	RowCount int             `json:"row_count"`
	Data     []artist.Record `json:"data"`
}

// InvalidRow is a source row diverted to quarantine.
type InvalidRow struct {
	Raw artist.RawRecord
	Err error
}

// Write emits the clean JSON document and the reject CSV for ts.
func (w *Writer) Write(ctx context.Context, part dedupe.Partition, ts string) (Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return Artifacts{}, err
	}
	out := artifactsFor(w.Dir, ts)

	if err := writeAtomic(out.JSONPath, func(dst io.Writer) error {
		return encodeClean(dst, part.Clean)
	}); err != nil {
		return Artifacts{}, err
	}
	w.Logger.Debug("clean artifact written",
		logging.String("path", out.JSONPath),
		logging.Int("rows", len(part.Clean)),
	)

	if err := ctx.Err(); err != nil {
		w.discardPaths(out.JSONPath)
		return Artifacts{}, err
	}
	if err := writeAtomic(out.CSVPath, func(dst io.Writer) error {
		return encodeRejects(dst, part.Rejected)
	}); err != nil {
		w.discardPaths(out.JSONPath)
		return Artifacts{}, err
	}
	w.Logger.Debug("reject artifact written",
		logging.String("path", out.CSVPath),
		logging.Int("rows", len(part.Rejected)),
	)
	return out, nil
}

// WriteInvalid writes quarantined rows to data_invalid_<ts>.csv and returns
// its path. Nothing is written when rows is empty.
func (w *Writer) WriteInvalid(ctx context.Context, rows []InvalidRow, ts string) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, InvalidName(ts))
	if err := writeAtomic(path, func(dst io.Writer) error {
		return encodeInvalid(dst, rows)
	}); err != nil {
		return "", err
	}
	w.Logger.Debug("quarantine artifact written",
		logging.String("path", path),
		logging.Int("rows", len(rows)),
	)
	return path, nil
}

// Discard removes the files named by arts. Missing files are ignored.
func (w *Writer) Discard(arts Artifacts) error {
	var errs []error
	for _, path := range arts.Paths() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, &failures.SinkIOError{Path: path, Op: "remove", Err: err})
		}
	}
	return errors.Join(errs...)
}

func (w *Writer) discardPaths(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.Logger.Warn("could not remove partial artifact",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}

func encodeClean(dst io.Writer, records []artist.Record) error {
	if records == nil {
		records = []artist.Record{}
	}
	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cleanDocument{RowCount: len(records), Data: records}); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func encodeRejects(dst io.Writer, records []artist.Record) error {
	cw := csv.NewWriter(dst)
	if err := cw.Write(artist.Header()); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.Raw().Slice()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeInvalid(dst io.Writer, rows []InvalidRow) error {
	cw := csv.NewWriter(dst)
	header := append([]string{"line"}, artist.Header()...)
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		line := make([]string, 0, len(header))
		line = append(line, strconv.Itoa(row.Raw.Line))
		line = append(line, row.Raw.Slice()...)
		msg := ""
		if row.Err != nil {
			msg = row.Err.Error()
		}
		line = append(line, msg)
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
