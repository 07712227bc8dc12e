// Package duration parses the short spans accepted on the command line,
// such as "12h", "1w" or "6mo".
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var units = map[string]time.Duration{
	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": 7 * day, "wk": 7 * day, "wks": 7 * day, "week": 7 * day, "weeks": 7 * day,
	"mo": 30 * day, "month": 30 * day, "months": 30 * day,
	"y": 365 * day, "yr": 365 * day, "yrs": 365 * day, "year": 365 * day, "years": 365 * day,
}

// ParseSpan parses a positive count followed by a unit.
func ParseSpan(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i <= 0 {
		return 0, fmt.Errorf("invalid duration format: %q (use e.g., 12h, 1w, 6mo)", s)
	}

	n, err := strconv.Atoi(s[:i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid duration count in %q", s)
	}

	unit, ok := units[strings.ToLower(s[i:])]
	if !ok {
		return 0, fmt.Errorf("unknown duration unit: %s", s[i:])
	}
	return time.Duration(n) * unit, nil
}

// Since returns the instant that lies the span s before now.
func Since(s string, now time.Time) (time.Time, error) {
	d, err := ParseSpan(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
