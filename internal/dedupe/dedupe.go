// Package dedupe partitions normalized records by identifier.
package dedupe

import (
	"sort"

	"cleanser/internal/artist"
)

// Partition is the result of splitting a record batch. Clean holds the first
// occurrence of every identifier and Rejected every later occurrence, both in
// input order.
type Partition struct {
	Clean    []artist.Record
	Rejected []artist.Record
}

// Total returns the number of records that went into the split.
func (p Partition) Total() int {
	return len(p.Clean) + len(p.Rejected)
}

// Duplicate describes one identifier that occurred more than once.
type Duplicate struct {
	ID          string
	Occurrences int
}

// Split walks records once and keeps the first record seen for each id.
func Split(records []artist.Record) Partition {
	seen := make(map[string]struct{}, len(records))
	part := Partition{
		Clean:    make([]artist.Record, 0, len(records)),
		Rejected: []artist.Record{},
	}
	for _, rec := range records {
		if _, dup := seen[rec.IDs]; dup {
			part.Rejected = append(part.Rejected, rec)
			continue
		}
		seen[rec.IDs] = struct{}{}
		part.Clean = append(part.Clean, rec)
	}
	return part
}

// DuplicateIDs lists each identifier found in Rejected with its total number
// of occurrences in the batch, ordered by id.
func (p Partition) DuplicateIDs() []Duplicate {
	if len(p.Rejected) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, rec := range p.Rejected {
		counts[rec.IDs]++
	}
	out := make([]Duplicate, 0, len(counts))
	for id, extra := range counts {
		out = append(out, Duplicate{ID: id, Occurrences: extra + 1})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
