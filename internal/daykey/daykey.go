// Package daykey handles the YYYY-MM-DD day keys used to index tasks and
// routine occurrences. Keys are always derived from local time: a UTC-based
// key would shift which calendar day a completion belongs to for anyone west
// or east of Greenwich. Keys sort lexicographically in chronological order,
// so callers compare them as plain strings.
package daykey

import "time"

const Layout = "2006-01-02"

// Format returns the day key for t in t's own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the current local day key.
func Today() string {
	return Format(time.Now())
}

// Parse converts a day key back into a local-midnight time.
func Parse(key string) (time.Time, error) {
	return time.ParseInLocation(Layout, key, time.Local)
}

// Weekday returns the weekday index for a day key, 0=Sunday..6=Saturday.
// Malformed keys report -1 so frequency predicates never match them.
func Weekday(key string) int {
	t, err := Parse(key)
	if err != nil {
		return -1
	}
	return int(t.Weekday())
}

// DayOfMonth returns the day-of-month (1..31) for a day key, or -1 when
// the key is malformed.
func DayOfMonth(key string) int {
	t, err := Parse(key)
	if err != nil {
		return -1
	}
	return t.Day()
}

// AddDays returns the day key n days after key. Malformed keys are
// returned unchanged.
func AddDays(key string, n int) string {
	t, err := Parse(key)
	if err != nil {
		return key
	}
	return Format(t.AddDate(0, 0, n))
}
