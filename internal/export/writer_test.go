package export_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"cleanser/internal/artist"
	"cleanser/internal/dedupe"
	"cleanser/internal/export"
	"cleanser/internal/failures"
)

func sampleRecords() []artist.Record {
	return []artist.Record{
		{Dates: artist.Date{Year: 2025, Month: time.June, Day: 14}, IDs: "1", Names: "A", Popularity: 5, Genres: []string{"pop", "rock"}, FirstRelease: "2015", FeatTrackIDs: []string{}},
		{Dates: artist.Date{Year: 2025, Month: time.June, Day: 14}, IDs: "2", Names: "B", Genres: nil, LastRelease: "2024"},
		{Dates: artist.Date{Year: 2025, Month: time.June, Day: 15}, IDs: "1", Names: "A, again", Genres: []string{"it's"}, FeatTrackIDs: []string{"x"}},
	}
}

func TestWriteProducesTimestampedArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := export.NewWriter(dir, nil)

	part := dedupe.Split(sampleRecords())
	arts, err := w.Write(context.Background(), part, "20250614101520")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(arts.JSONPath) != "data_20250614101520.json" {
		t.Fatalf("json name = %s", arts.JSONPath)
	}
	if filepath.Base(arts.CSVPath) != "data_reject_20250614101520.csv" {
		t.Fatalf("csv name = %s", arts.CSVPath)
	}
	if filepath.Dir(arts.JSONPath) != filepath.Dir(arts.CSVPath) {
		t.Fatalf("artifacts in different directories: %+v", arts)
	}
	if err := export.Validate(arts); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected exactly two files, got %d", len(entries))
	}
}

func TestWriteJSONDocument(t *testing.T) {
	dir := t.TempDir()
	part := dedupe.Split(sampleRecords())
	arts, err := export.NewWriter(dir, nil).Write(context.Background(), part, "20250614101520")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(arts.JSONPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"row_count\": 2") {
		t.Fatalf("expected two-space indented row_count, got:\n%s", data)
	}

	var doc struct {
		RowCount int               `json:"row_count"`
		Data     []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.RowCount != len(part.Clean) || len(doc.Data) != doc.RowCount {
		t.Fatalf("row_count=%d data=%d clean=%d", doc.RowCount, len(doc.Data), len(part.Clean))
	}

	var first map[string]any
	if err := json.Unmarshal(doc.Data[0], &first); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if first["dates"] != "2025-06-14" {
		t.Fatalf("dates = %v", first["dates"])
	}
	if first["popularity"] != float64(5) {
		t.Fatalf("popularity = %#v, want number", first["popularity"])
	}
	if first["first_release"] != "2015" {
		t.Fatalf("first_release = %#v", first["first_release"])
	}
	if !reflect.DeepEqual(first["genres"], []any{"pop", "rock"}) {
		t.Fatalf("genres = %#v", first["genres"])
	}

	var second map[string]any
	if err := json.Unmarshal(doc.Data[1], &second); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !reflect.DeepEqual(second["genres"], []any{}) || !reflect.DeepEqual(second["feat_track_ids"], []any{}) {
		t.Fatalf("expected empty arrays, got genres=%#v feat=%#v", second["genres"], second["feat_track_ids"])
	}
}

func TestWriteRejectCSV(t *testing.T) {
	dir := t.TempDir()
	part := dedupe.Split(sampleRecords())
	arts, err := export.NewWriter(dir, nil).Write(context.Background(), part, "20250614101520")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := os.Open(arts.CSVPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0], artist.Header()) {
		t.Fatalf("header = %v", rows[0])
	}
	row := rows[1]
	if row[artist.ColNames] != "A, again" {
		t.Fatalf("names = %q", row[artist.ColNames])
	}
	if row[artist.ColGenres] != `['it\'s']` {
		t.Fatalf("genres = %q", row[artist.ColGenres])
	}
	if row[artist.ColFeatTrackIDs] != "['x']" {
		t.Fatalf("feat_track_ids = %q", row[artist.ColFeatTrackIDs])
	}
	if row[artist.ColDates] != "2025-06-15" {
		t.Fatalf("dates = %q", row[artist.ColDates])
	}
}

func TestWriteEmptyPartition(t *testing.T) {
	dir := t.TempDir()
	arts, err := export.NewWriter(dir, nil).Write(context.Background(), dedupe.Split(nil), "20250101000000")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(arts.JSONPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["row_count"] != float64(0) || !reflect.DeepEqual(doc["data"], []any{}) {
		t.Fatalf("unexpected empty document: %s", data)
	}
	csvData, err := os.ReadFile(arts.CSVPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if string(csvData) != artist.HeaderString()+"\n" {
		t.Fatalf("csv = %q, want header only", csvData)
	}
}

func TestWriteFailureLeavesNoArtifact(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "out")
	if err := os.WriteFile(blocker, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	_, err := export.NewWriter(blocker, nil).Write(context.Background(), dedupe.Split(sampleRecords()), "20250614101520")
	if err == nil {
		t.Fatal("expected error when output dir is a file")
	}
	if !errors.Is(err, failures.ErrSinkIO) {
		t.Fatalf("expected ErrSinkIO, got %v", err)
	}
}

func TestWriteOverExistingTargetIsAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, export.JSONName("20250614101520"))
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write keep: %v", err)
	}
	_, err := export.NewWriter(dir, nil).Write(context.Background(), dedupe.Split(sampleRecords()), "20250614101520")
	if err == nil {
		t.Fatal("expected rename failure")
	}
	var sinkErr *failures.SinkIOError
	if !errors.As(err, &sinkErr) || sinkErr.Op != "rename" {
		t.Fatalf("expected rename SinkIOError, got %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestWriteRejectFailureRemovesCleanArtifact(t *testing.T) {
	dir := t.TempDir()
	ts := "20250614101520"
	if err := os.Mkdir(filepath.Join(dir, export.RejectName(ts)), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, export.RejectName(ts), "keep"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write keep: %v", err)
	}
	_, err := export.NewWriter(dir, nil).Write(context.Background(), dedupe.Split(sampleRecords()), ts)
	if !errors.Is(err, failures.ErrSinkIO) {
		t.Fatalf("expected ErrSinkIO, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, export.JSONName(ts))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("clean artifact left behind: %v", err)
	}
}

func TestDiscardRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	w := export.NewWriter(dir, nil)
	arts, err := w.Write(context.Background(), dedupe.Split(sampleRecords()), "20250614101520")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	arts.InvalidPath = filepath.Join(dir, export.InvalidName("20250614101520"))
	if err := w.Discard(arts); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
}

func TestWriteCanceledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := export.NewWriter(dir, nil).Write(ctx, dedupe.Split(sampleRecords()), "20250614101520"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files, got %d", len(entries))
	}
}

func TestWriteInvalid(t *testing.T) {
	dir := t.TempDir()
	w := export.NewWriter(dir, nil)

	path, err := w.WriteInvalid(context.Background(), nil, "20250614101520")
	if err != nil || path != "" {
		t.Fatalf("expected no-op for empty rows, got %q %v", path, err)
	}

	raw := artist.RawRecord{Line: 4}
	raw.Fields[artist.ColIDs] = "bad"
	raw.Fields[artist.ColDates] = "yesterday"
	path, err = w.WriteInvalid(context.Background(), []export.InvalidRow{{Raw: raw, Err: errors.New("unrecognized date format")}}, "20250614101520")
	if err != nil {
		t.Fatalf("WriteInvalid failed: %v", err)
	}
	if filepath.Base(path) != "data_invalid_20250614101520.csv" {
		t.Fatalf("path = %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "line" || rows[0][len(rows[0])-1] != "error" {
		t.Fatalf("unexpected quarantine file: %v", rows)
	}
	if rows[1][0] != "4" || rows[1][1+artist.ColDates] != "yesterday" || rows[1][len(rows[1])-1] != "unrecognized date format" {
		t.Fatalf("unexpected quarantine row: %v", rows[1])
	}
}
