package services

import (
	"strings"
	"time"

	apperrors "github.com/vsinha/lineage/pkg/domain/errors"
)

// dateLayouts are tried in order; any time part is discarded first
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// missingMarkers are placeholder values the source system writes for absent dates
var missingMarkers = map[string]bool{
	"":             true,
	"n/a":          true,
	"not shipped":  true,
	"not recorded": true,
}

// ParseFlexibleDate parses a calendar date in any of the known layouts and
// returns it at midnight UTC. Blank or placeholder values and unparseable
// strings return a MISSING_DATE AppError.
func ParseFlexibleDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if missingMarkers[strings.ToLower(value)] {
		return time.Time{}, apperrors.MissingDate("date is absent (%q)", raw)
	}

	candidates := []string{value}
	if base := stripTimePart(value); base != value {
		candidates = append(candidates, base)
	}

	for _, candidate := range candidates {
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				return Day(parsed), nil
			}
		}
	}
	return time.Time{}, apperrors.MissingDate("could not parse date %q with any known format", raw)
}

// stripTimePart drops a trailing time from ISO-like values such as
// 2023-10-26T10:00:00 or 2023-10-26 10:00
func stripTimePart(value string) string {
	if idx := strings.IndexByte(value, 'T'); idx == 10 {
		return value[:idx]
	}
	if len(value) > 10 && value[10] == ' ' && strings.Count(value[:10], "-") == 2 {
		return value[:10]
	}
	return value
}

// Day truncates t to its calendar day in UTC
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of days from -> to (negative when to is earlier)
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// FormatDate renders a calendar day, or "N/A" for a missing date
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02")
}
