package transcript

import (
	"strconv"
	"strings"
)

// ParseTimestamp parses an HH:MM:SS clock value into total seconds.
//
// Malformed input (wrong component count, any non-numeric or negative
// component) reports ok == false; callers treat that as a silent no-op
// rather than an error, so a transcript with decorative bracket text
// still renders and simply cannot seek.
func ParseTimestamp(s string) (seconds int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}

	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return 0, false
		}
		vals[i] = v
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], true
}
