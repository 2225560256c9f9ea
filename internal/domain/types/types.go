// Package types contains common types used across the application
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used in keys, artifacts and the API.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned for malformed dates or ranges whose end
// precedes their start.
var ErrInvalidRange = errors.New("invalid date range")

// ErrFutureDate is returned for dates after today.
var ErrFutureDate = errors.New("date is in the future")

// ErrRangeTooLong is returned for ranges spanning more days than allowed.
// It matches ErrInvalidRange.
var ErrRangeTooLong = fmt.Errorf("%w: too many days", ErrInvalidRange)

// ErrUnknownVersion is returned when no review in a range is attributed to a
// requested app version.
var ErrUnknownVersion = errors.New("no reviews for version")

// ParseDate parses a YYYY-MM-DD string into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidRange, s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both ends to UTC days and checks ordering.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, FormatDate(end), FormatDate(start))
	}
	return r, nil
}

// ParseDateRange builds a range from two YYYY-MM-DD strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// Dates enumerates every day in the range, in order.
func (r DateRange) Dates() []time.Time {
	if r.End.Before(r.Start) {
		return nil
	}
	out := make([]time.Time, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Days returns the number of days in the range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}

// MarshalText renders the range as "start..end".
func (r DateRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses "start..end".
func (r *DateRange) UnmarshalText(b []byte) error {
	start, end, ok := strings.Cut(string(b), "..")
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRange, string(b))
	}
	parsed, err := ParseDateRange(start, end)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
