package artist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// RawRecord is one CSV data row with no type guarantees.
type RawRecord struct {
	// Line is the 1-based line number in the source file (header is line 1).
	Line   int
	Fields [NumColumns]string
}

// Get returns the raw value of the column at idx.
func (r RawRecord) Get(idx int) string {
	if idx < 0 || idx >= NumColumns {
		return ""
	}
	return r.Fields[idx]
}

// Slice returns the raw fields as a slice in column order.
func (r RawRecord) Slice() []string {
	out := make([]string, NumColumns)
	copy(out, r.Fields[:])
	return out
}

// Date is a calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// Record is the canonical normalized artist row.
type Record struct {
	Dates            Date     `json:"dates"`
	IDs              string   `json:"ids"`
	Names            string   `json:"names"`
	MonthlyListeners int64    `json:"monthly_listeners"`
	Popularity       int      `json:"popularity"`
	Followers        int64    `json:"followers"`
	Genres           []string `json:"genres"`
	FirstRelease     string   `json:"first_release"`
	LastRelease      string   `json:"last_release"`
	NumReleases      int      `json:"num_releases"`
	NumTracks        int      `json:"num_tracks"`
	PlaylistsFound   string   `json:"playlists_found"`
	FeatTrackIDs     []string `json:"feat_track_ids"`
}

// MarshalJSON keeps empty lists as [] rather than null.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	out := plain(r)
	if out.Genres == nil {
		out.Genres = []string{}
	}
	if out.FeatTrackIDs == nil {
		out.FeatTrackIDs = []string{}
	}
	return json.Marshal(out)
}

// Raw renders the record in canonical textual form. Feeding the result back
// through the normalizer yields an identical record.
func (r Record) Raw() RawRecord {
	var raw RawRecord
	raw.Fields[ColDates] = r.Dates.String()
	raw.Fields[ColIDs] = r.IDs
	raw.Fields[ColNames] = r.Names
	raw.Fields[ColMonthlyListeners] = strconv.FormatInt(r.MonthlyListeners, 10)
	raw.Fields[ColPopularity] = strconv.Itoa(r.Popularity)
	raw.Fields[ColFollowers] = strconv.FormatInt(r.Followers, 10)
	raw.Fields[ColGenres] = FormatList(r.Genres)
	raw.Fields[ColFirstRelease] = r.FirstRelease
	raw.Fields[ColLastRelease] = r.LastRelease
	raw.Fields[ColNumReleases] = strconv.Itoa(r.NumReleases)
	raw.Fields[ColNumTracks] = strconv.Itoa(r.NumTracks)
	raw.Fields[ColPlaylistsFound] = r.PlaylistsFound
	raw.Fields[ColFeatTrackIDs] = FormatList(r.FeatTrackIDs)
	return raw
}

// FormatList renders items as a bracketed, single-quoted list literal such as
// ['pop', 'rock']. An empty or nil list renders as [].
func FormatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		for _, r := range item {
			switch r {
			case '\\':
				b.WriteString(`\\`)
			case '\'':
				b.WriteString(`\'`)
			case '\n':
				b.WriteString(`\n`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteRune(r)
			}
		}
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}
