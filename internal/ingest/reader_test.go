package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cleanser/internal/artist"
	"cleanser/internal/failures"
	"cleanser/internal/ingest"
)

const header = "dates,ids,names,monthly_listeners,popularity,followers,genres,first_release,last_release,num_releases,num_tracks,playlists_found,feat_track_ids\n"

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scrap.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestReadAllPreservesOrder(t *testing.T) {
	path := writeSource(t, header+
		"2024-01-01,1,artist one,1000,80,500,\"['pop']\",2020,2024,5,50,100,\"['track1']\"\n"+
		"2024-01-02,2,artist two,2000,90,1000,\"['rock']\",2019,2024,8,80,200,\"['track2']\"\n"+
		"2024-01-01,1,artist one,1000,80,500,\"['pop']\",2020,2024,5,50,100,\"['track1']\"\n")

	records, err := ingest.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	ids := []string{records[0].Get(artist.ColIDs), records[1].Get(artist.ColIDs), records[2].Get(artist.ColIDs)}
	if strings.Join(ids, ",") != "1,2,1" {
		t.Fatalf("unexpected id order %v", ids)
	}
	if records[0].Line != 2 || records[2].Line != 4 {
		t.Fatalf("unexpected line numbers %d, %d", records[0].Line, records[2].Line)
	}
	if records[0].Get(artist.ColGenres) != "['pop']" {
		t.Fatalf("unexpected genres %q", records[0].Get(artist.ColGenres))
	}
}

func TestHeaderOnlyYieldsNoRecords(t *testing.T) {
	path := writeSource(t, header)
	records, err := ingest.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestMissingSourceReturnsSourceNotFound(t *testing.T) {
	_, err := ingest.Open(filepath.Join(t.TempDir(), "nope.csv"))
	var target *failures.SourceNotFoundError
	if !errors.As(err, &target) {
		t.Fatalf("expected SourceNotFoundError, got %v", err)
	}
}

func TestHeaderMismatch(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"reordered": "ids,dates,names,monthly_listeners,popularity,followers,genres,first_release,last_release,num_releases,num_tracks,playlists_found,feat_track_ids\n",
		"short":     "dates,ids,names\n",
		"renamed":   "date,ids,names,monthly_listeners,popularity,followers,genres,first_release,last_release,num_releases,num_tracks,playlists_found,feat_track_ids\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ingest.Open(writeSource(t, content))
			if !errors.Is(err, failures.ErrMalformedInput) {
				t.Fatalf("expected malformed input, got %v", err)
			}
		})
	}
}

func TestHeaderWithBOMAndPaddingAccepted(t *testing.T) {
	padded := strings.ReplaceAll(header, ",", " , ")
	path := writeSource(t, "\ufeff"+padded)
	if _, err := ingest.ReadAll(path); err != nil {
		t.Fatalf("expected BOM header to be accepted: %v", err)
	}
}

func TestRowWithWrongFieldCount(t *testing.T) {
	path := writeSource(t, header+"2024-01-01,1,artist\n")
	_, err := ingest.ReadAll(path)
	var target *failures.MalformedInputError
	if !errors.As(err, &target) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if target.Line != 2 {
		t.Fatalf("expected line 2, got %d", target.Line)
	}
}

func TestInvalidUTF8IsReplaced(t *testing.T) {
	path := writeSource(t, header+"2024-01-01,1,caf\xe9,1,1,1,[],2020,2024,1,1,1,[]\n")
	r, err := ingest.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	var names []string
	for raw, err := range r.Records() {
		if err != nil {
			t.Fatalf("Records: %v", err)
		}
		names = append(names, raw.Get(artist.ColNames))
	}
	if len(names) != 1 || names[0] != "caf\uFFFD" {
		t.Fatalf("unexpected names %q", names)
	}
	if r.ReplacedRows() != 1 || r.Rows() != 1 {
		t.Fatalf("unexpected counters replaced=%d rows=%d", r.ReplacedRows(), r.Rows())
	}
}

func TestFingerprintIsStable(t *testing.T) {
	path := writeSource(t, header)
	first, err := ingest.Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, _ := ingest.Fingerprint(path)
	if first != second || len(first) != 64 {
		t.Fatalf("unexpected fingerprints %q %q", first, second)
	}
	if _, err := ingest.Fingerprint(path + ".missing"); !errors.Is(err, failures.ErrSourceNotFound) {
		t.Fatalf("expected source not found, got %v", err)
	}
}
