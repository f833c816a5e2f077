package normalize

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts is the ordered list of formats ParseTimestamp attempts.
// Policy (spec.md §9): return the first match, fail the row on none.
var timestampLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts "M/D/YYYY H:MM[:SS]" and "YYYY-MM-DD HH:MM[:SS]",
// trying each known layout in order and returning the first successful
// parse as a naive (location-less) wall-clock instant.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp: %q", raw)
}

// TruncateToHour zeroes the minute/second/nanosecond components, used to
// align 5-minute RT data onto the hourly DA/TW grid.
func TruncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
