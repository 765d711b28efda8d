package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHourRanges parses a comma-separated list of half-open hour ranges,
// e.g. "07-10,16-19".
func ParseHourRanges(expr string) ([]HourRange, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var ranges []HourRange
	for _, part := range strings.Split(expr, ",") {
		bounds := strings.Split(strings.TrimSpace(part), "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid hour range %q", part)
		}
		from, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("invalid hour range %q: %w", part, err)
		}
		to, err := strconv.Atoi(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("invalid hour range %q: %w", part, err)
		}
		if from < 0 || to > 24 || from >= to {
			return nil, fmt.Errorf("invalid hour range %q", part)
		}
		ranges = append(ranges, HourRange{From: from, To: to})
	}
	return ranges, nil
}
