package artist_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cleanser/internal/artist"
)

func TestFormatList(t *testing.T) {
	cases := []struct {
		name  string
		items []string
		want  string
	}{
		{"nil", nil, "[]"},
		{"single", []string{"pop"}, "['pop']"},
		{"multiple", []string{"pop", "rock"}, "['pop', 'rock']"},
		{"escapes quote", []string{"rock 'n' roll"}, `['rock \'n\' roll']`},
		{"escapes backslash", []string{`a\b`}, `['a\\b']`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := artist.FormatList(tc.items); got != tc.want {
				t.Fatalf("FormatList(%q) = %q, want %q", tc.items, got, tc.want)
			}
		})
	}
}

func TestRecordMarshalJSONEmitsEmptyArrays(t *testing.T) {
	rec := artist.Record{
		Dates:        artist.DateOf(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		IDs:          "abc",
		FirstRelease: "2020",
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"dates":"2024-01-02"`, `"genres":[]`, `"feat_track_ids":[]`, `"first_release":"2020"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestRawRendersCanonicalColumns(t *testing.T) {
	rec := artist.Record{
		Dates:            artist.Date{Year: 2025, Month: time.June, Day: 14},
		IDs:              "id-1",
		Names:            "SHAWN MENDES",
		MonthlyListeners: 5_000_000_000,
		Popularity:       90,
		Followers:        42,
		Genres:           []string{"pop", "rock"},
		FirstRelease:     "2014",
		LastRelease:      "2024",
		NumReleases:      3,
		NumTracks:        40,
		PlaylistsFound:   "12",
	}
	raw := rec.Raw()
	if raw.Get(artist.ColDates) != "2025-06-14" {
		t.Fatalf("dates: %q", raw.Get(artist.ColDates))
	}
	if raw.Get(artist.ColMonthlyListeners) != "5000000000" {
		t.Fatalf("monthly_listeners: %q", raw.Get(artist.ColMonthlyListeners))
	}
	if raw.Get(artist.ColGenres) != "['pop', 'rock']" {
		t.Fatalf("genres: %q", raw.Get(artist.ColGenres))
	}
	if raw.Get(artist.ColFeatTrackIDs) != "[]" {
		t.Fatalf("feat_track_ids: %q", raw.Get(artist.ColFeatTrackIDs))
	}
	if len(raw.Slice()) != artist.NumColumns {
		t.Fatalf("expected %d columns", artist.NumColumns)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	var d artist.Date
	if err := json.Unmarshal([]byte(`"1999-12-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.String() != "1999-12-31" {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"31/12/1999"`), &d); err == nil {
		t.Fatal("expected error for non-canonical date")
	}
}
