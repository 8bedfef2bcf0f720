package artist

import "strings"

// Column positions in the source schema.
const (
	ColDates = iota
	ColIDs
	ColNames
	ColMonthlyListeners
	ColPopularity
	ColFollowers
	ColGenres
	ColFirstRelease
	ColLastRelease
	ColNumReleases
	ColNumTracks
	ColPlaylistsFound
	ColFeatTrackIDs

	NumColumns
)

// Columns is the exact source header, in order.
var Columns = [NumColumns]string{
	"dates",
	"ids",
	"names",
	"monthly_listeners",
	"popularity",
	"followers",
	"genres",
	"first_release",
	"last_release",
	"num_releases",
	"num_tracks",
	"playlists_found",
	"feat_track_ids",
}

// Header returns a copy of Columns as a slice, suitable for csv.Writer.
func Header() []string {
	out := make([]string, NumColumns)
	copy(out, Columns[:])
	return out
}

// HeaderString joins the header with commas.
func HeaderString() string {
	return strings.Join(Columns[:], ",")
}
