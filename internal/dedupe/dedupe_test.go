package dedupe_test

import (
	"testing"

	"cleanser/internal/artist"
	"cleanser/internal/dedupe"
)

func records(ids ...string) []artist.Record {
	out := make([]artist.Record, len(ids))
	for i, id := range ids {
		out[i] = artist.Record{IDs: id, Popularity: i + 1}
	}
	return out
}

func TestSplitKeepsFirstOccurrence(t *testing.T) {
	part := dedupe.Split(records("1", "2", "1"))

	if len(part.Clean) != 2 {
		t.Fatalf("clean = %d, want 2", len(part.Clean))
	}
	if part.Clean[0].IDs != "1" || part.Clean[0].Popularity != 1 {
		t.Fatalf("clean[0] = %+v, want first row", part.Clean[0])
	}
	if part.Clean[1].IDs != "2" {
		t.Fatalf("clean[1] = %+v, want id 2", part.Clean[1])
	}
	if len(part.Rejected) != 1 {
		t.Fatalf("rejected = %d, want 1", len(part.Rejected))
	}
	if part.Rejected[0].IDs != "1" || part.Rejected[0].Popularity != 3 {
		t.Fatalf("rejected[0] = %+v, want third row", part.Rejected[0])
	}
}

func TestSplitProperties(t *testing.T) {
	tests := map[string][]string{
		"empty":      {},
		"unique":     {"a", "b", "c"},
		"all same":   {"x", "x", "x", "x"},
		"interleave": {"a", "b", "a", "c", "b", "a", "d"},
	}
	for name, ids := range tests {
		t.Run(name, func(t *testing.T) {
			in := records(ids...)
			part := dedupe.Split(in)

			if part.Total() != len(in) {
				t.Fatalf("clean+rejected = %d, want %d", part.Total(), len(in))
			}
			seen := map[string]bool{}
			for _, rec := range part.Clean {
				if seen[rec.IDs] {
					t.Fatalf("duplicate id %q in clean", rec.IDs)
				}
				seen[rec.IDs] = true
			}
			for _, rec := range part.Rejected {
				if !seen[rec.IDs] {
					t.Fatalf("rejected id %q has no clean counterpart", rec.IDs)
				}
			}
			for i := 1; i < len(part.Clean); i++ {
				if part.Clean[i-1].Popularity > part.Clean[i].Popularity {
					t.Fatalf("clean order not preserved")
				}
			}
			for i := 1; i < len(part.Rejected); i++ {
				if part.Rejected[i-1].Popularity > part.Rejected[i].Popularity {
					t.Fatalf("rejected order not preserved")
				}
			}
		})
	}
}

func TestDuplicateIDs(t *testing.T) {
	part := dedupe.Split(records("b", "a", "b", "a", "a", "c"))
	dups := part.DuplicateIDs()
	if len(dups) != 2 {
		t.Fatalf("duplicates = %+v, want 2 entries", dups)
	}
	if dups[0] != (dedupe.Duplicate{ID: "a", Occurrences: 3}) {
		t.Fatalf("dups[0] = %+v", dups[0])
	}
	if dups[1] != (dedupe.Duplicate{ID: "b", Occurrences: 2}) {
		t.Fatalf("dups[1] = %+v", dups[1])
	}
	if got := dedupe.Split(records("a")).DuplicateIDs(); got != nil {
		t.Fatalf("expected nil duplicates, got %+v", got)
	}
}
