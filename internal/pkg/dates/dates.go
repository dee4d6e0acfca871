package dates

import "time"

// WireFormat is the timestamp layout the backend expects on range bounds:
// local time components, zero padded, no zone designator.
const WireFormat = "2006-01-02T15:04:05"

// DayFormat is the calendar-date layout used for map keys and user input.
const DayFormat = "2006-01-02"

// Range is an inclusive pair of calendar dates in local time.
type Range struct {
	Start time.Time
	End   time.Time
}

// Complete reports whether both bounds are present.
func (r Range) Complete() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Inverted reports whether the bounds are out of order. An inverted range is
// still well formed; it just selects nothing.
func (r Range) Inverted() bool {
	return r.Start.After(r.End)
}

// FormatWire renders t in the backend's wire layout. A value built from a
// bare calendar date carries its local midnight.
func FormatWire(t time.Time) string {
	return t.Format(WireFormat)
}

// ParseDay parses a YYYY-MM-DD string to that date's local midnight.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, s, time.Local)
}

// Day truncates t to its local midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Display renders a stored date string for a person. Accepts either the day
// or the wire layout; anything else is passed through unchanged. One-way:
// never sent back to the server.
func Display(s string) string {
	for _, layout := range []string{DayFormat, WireFormat, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}
