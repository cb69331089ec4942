package utils

import "time"

// EpochDateLayout is the stored day-boundary format for daily counters.
const EpochDateLayout = "2006-01-02"

// UTCDate returns the UTC calendar date of t in EpochDateLayout. Daily
// counters compare this stored epoch instead of string-prefixing timestamps,
// so the boundary is explicit and timezone-stable.
func UTCDate(t time.Time) string {
	return t.UTC().Format(EpochDateLayout)
}

// SameUTCDate reports whether both times fall on the same UTC calendar day.
func SameUTCDate(a, b time.Time) bool {
	return UTCDate(a) == UTCDate(b)
}
