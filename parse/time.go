package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chingiztob/ferrobus/transit"
)

// ParseTime converts a GTFS HH:MM:SS string into seconds since midnight.
// Hours may exceed 23 for post-midnight trips.
func ParseTime(s string) (transit.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("found %d parts in %q", len(parts), s)
	}

	var hms [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("non-integer in %q pos %d", s, i)
		}
		hms[i] = v
	}

	if hms[0] < 0 || hms[0] > 99 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid second in %q", s)
	}

	return transit.Time(hms[0]*3600 + hms[1]*60 + hms[2]), nil
}
