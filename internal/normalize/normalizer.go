package normalize

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"cleanser/internal/artist"
	"cleanser/internal/failures"
	"cleanser/internal/logging"
)

// spotifyID matches a base62 Spotify track identifier.
var spotifyID = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// Options tune the normalizer.
type Options struct {
	// ASCIIFold strips diacritics from upper-cased names and drops any rune
	// that has no ASCII form.
	ASCIIFold bool
	Logger    *slog.Logger
}

// Stats counts notable but non-fatal observations made while normalizing.
type Stats struct {
	Rows               int
	NonSpotifyTrackIDs int
}

// Normalizer applies the per-column coercion rules. It is not safe for
// concurrent use.
type Normalizer struct {
	fold   bool
	upper  cases.Caser
	logger *slog.Logger
	stats  Stats
}

// New constructs a Normalizer.
func New(opts Options) *Normalizer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Normalizer{
		fold:   opts.ASCIIFold,
		upper:  cases.Upper(language.Und),
		logger: logger,
	}
}

// Stats returns counters accumulated since construction.
func (n *Normalizer) Stats() Stats {
	return n.stats
}

// Normalize converts one raw row into a typed record.
func (n *Normalizer) Normalize(raw artist.RawRecord) (artist.Record, error) {
	var rec artist.Record
	fail := func(col int, reason string, err error) (artist.Record, error) {
		return artist.Record{}, &failures.TransformError{
			Line:   raw.Line,
			Field:  artist.Columns[col],
			Value:  raw.Get(col),
			Reason: reason,
			Err:    err,
		}
	}

	date, err := parseDate(raw.Get(artist.ColDates))
	if err != nil {
		return fail(artist.ColDates, err.Error(), nil)
	}
	rec.Dates = date

	rec.IDs = strings.TrimSpace(raw.Get(artist.ColIDs))
	if rec.IDs == "" {
		return fail(artist.ColIDs, "empty identifier", nil)
	}

	rec.Names = n.name(raw.Get(artist.ColNames))

	ints := []struct {
		col  int
		bits int
		set  func(int64)
	}{
		{artist.ColMonthlyListeners, 64, func(v int64) { rec.MonthlyListeners = v }},
		{artist.ColPopularity, 32, func(v int64) { rec.Popularity = int(v) }},
		{artist.ColFollowers, 64, func(v int64) { rec.Followers = v }},
		{artist.ColNumReleases, 32, func(v int64) { rec.NumReleases = int(v) }},
		{artist.ColNumTracks, 32, func(v int64) { rec.NumTracks = int(v) }},
	}
	for _, col := range ints {
		v, err := parseInt(raw.Get(col.col), col.bits)
		if err != nil {
			return fail(col.col, err.Error(), nil)
		}
		col.set(v)
	}

	if rec.Genres, err = ParseList(raw.Get(artist.ColGenres)); err != nil {
		return fail(artist.ColGenres, "malformed list", err)
	}
	if rec.FeatTrackIDs, err = ParseList(raw.Get(artist.ColFeatTrackIDs)); err != nil {
		return fail(artist.ColFeatTrackIDs, "malformed list", err)
	}

	if rec.FirstRelease, err = parseYear(raw.Get(artist.ColFirstRelease)); err != nil {
		return fail(artist.ColFirstRelease, err.Error(), nil)
	}
	if rec.LastRelease, err = parseYear(raw.Get(artist.ColLastRelease)); err != nil {
		return fail(artist.ColLastRelease, err.Error(), nil)
	}

	rec.PlaylistsFound = strings.TrimSpace(raw.Get(artist.ColPlaylistsFound))

	n.stats.Rows++
	n.checkTrackIDs(raw.Line, rec)
	return rec, nil
}

func (n *Normalizer) name(value string) string {
	value = n.upper.String(strings.TrimSpace(value))
	if n.fold {
		value = foldASCII(value)
	}
	return strings.TrimSpace(value)
}

func (n *Normalizer) checkTrackIDs(line int, rec artist.Record) {
	bad := 0
	for _, id := range rec.FeatTrackIDs {
		if !spotifyID.MatchString(id) {
			bad++
		}
	}
	if bad == 0 {
		return
	}
	n.stats.NonSpotifyTrackIDs += bad
	n.logger.Debug("feat_track_ids contains non-spotify identifiers",
		logging.Int("line", line),
		logging.String("ids", rec.IDs),
		logging.Int("count", bad),
	)
}

// foldASCII applies compatibility decomposition, removes combining marks, and
// drops any remaining non-ASCII rune. Callers upper-case first so full case
// mappings such as ß to SS survive.
func foldASCII(value string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		norm.NFC,
	)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
