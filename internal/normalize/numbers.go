package normalize

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// integerText allows a trailing run of fractional zeros, which spreadsheet
// and dataframe exports attach to whole numbers.
var integerText = regexp.MustCompile(`^([+-]?\d+)(?:\.0*)?$`)

// parseInt coerces value into a signed integer of the given bit size.
// Empty input is zero.
func parseInt(value string, bitSize int) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	m := integerText.FindStringSubmatch(value)
	if m == nil {
		return 0, errors.New("not an integer")
	}
	n, err := strconv.ParseInt(m[1], 10, bitSize)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errors.New("integer out of range")
		}
		return 0, errors.New("not an integer")
	}
	return n, nil
}
