package service

import (
	"strings"
	"time"
)

const serviceDateLayout = "2006-01-02"

// resolveDate parses an extracted date string. An empty or unparseable value
// falls back to the current day in UTC; the second return reports whether
// the fallback was taken.
func resolveDate(raw string, now func() time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return now().UTC().Truncate(24 * time.Hour), true
	}
	parsed, err := time.Parse(serviceDateLayout, trimmed)
	if err != nil {
		return now().UTC().Truncate(24 * time.Hour), true
	}
	return parsed, false
}
