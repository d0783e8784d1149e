package usage

import "time"

// DefaultLocation is the product's market timezone, used when a user has no
// explicit timezone preference. Monthly quotas reset at local midnight on
// the first of the month, not at UTC midnight.
var DefaultLocation = mustLoadLocation("America/Santiago")

// MonthStart returns the first instant of the calendar month containing now,
// in the given location.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultLocation
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata may be missing in minimal containers; UTC keeps the
		// window deterministic instead of crashing at startup.
		return time.UTC
	}
	return loc
}
