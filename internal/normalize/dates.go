package normalize

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cleanser/internal/artist"
)

// dateLayouts are tried in order. Numeric forms with separators other than
// '-' in year-first position are read day-first.
var dateLayouts = []string{
	artist.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
}

var errEmpty = errors.New("empty value")

// parseDate returns the calendar date of value.
func parseDate(value string) (artist.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return artist.Date{}, errEmpty
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return artist.DateOf(t), nil
		}
	}
	return artist.Date{}, errors.New("unrecognized date format")
}

// bareYear matches a four-digit year, optionally written as a whole float.
var bareYear = regexp.MustCompile(`^(\d{4})(?:\.0*)?$`)

// parseYear reduces a release value to a four-digit year. Empty input yields
// an empty year.
func parseYear(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if m := bareYear.FindStringSubmatch(value); m != nil {
		return m[1], nil
	}
	d, err := parseDate(value)
	if err != nil {
		return "", errors.New("not a year or date")
	}
	if d.Year < 1000 || d.Year > 9999 {
		return "", errors.New("year out of range")
	}
	return strconv.Itoa(d.Year), nil
}
