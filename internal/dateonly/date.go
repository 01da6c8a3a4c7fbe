// Package dateonly models calendar dates that carry no time of day and no zone.
//
// A Date always renders as a zero-padded YYYY-MM-DD string, which is the form the
// assignment and attendance stores persist. Converting to and from time.Time goes
// through calendar fields only, so a date never shifts when the host zone and the
// zone of the original wall clock differ.
package dateonly

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical time layout of a Date.
const Layout = "2006-01-02"

const day = 24 * time.Hour

const (
	minYear = 1
	maxYear = 9999
)

var componentWidths = [3]int{4, 2, 2}

var (
	// ErrMalformed is returned when a string is not a valid YYYY-MM-DD date.
	ErrMalformed = errors.New("dateonly: malformed date")
	// ErrInvertedRange is returned when a range ends before it starts.
	ErrInvertedRange = errors.New("dateonly: end date before start date")
)

// ParseError reports the offending input of a failed Parse.
type ParseError struct {
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("dateonly: cannot parse %q: %s", e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// Date is a calendar date. The zero value is "unset" and renders as an empty string.
type Date struct {
	year  int
	month time.Month
	day   int
}

// New builds a Date from calendar components. Out of range components are
// normalised the way time.Date does (e.g. 2024-01-32 becomes 2024-02-01).
func New(year int, month time.Month, d int) Date {
	return FromTime(time.Date(year, month, d, 12, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar date of t as seen in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(now.In(loc))
}

// Parse reads a YYYY-MM-DD string. Anything from the first 'T' onward is ignored
// so that full timestamps cannot leak a time of day into the date. Components
// must be plain ASCII digits of exactly 4, 2 and 2 characters.
func Parse(s string) (Date, error) {
	raw := s
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, &ParseError{Value: raw, Reason: "expected YYYY-MM-DD"}
	}

	values := make([]int, 3)
	for i, part := range parts {
		if part == "" {
			return Date{}, &ParseError{Value: raw, Reason: "empty component"}
		}
		if !isDigits(part) {
			return Date{}, &ParseError{Value: raw, Reason: fmt.Sprintf("component %q is not a number", part)}
		}
		if len(part) != componentWidths[i] {
			return Date{}, &ParseError{Value: raw, Reason: fmt.Sprintf("component %q must have %d digits", part, componentWidths[i])}
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, &ParseError{Value: raw, Reason: fmt.Sprintf("component %q is not a number", part)}
		}
		values[i] = n
	}

	year, month, d := values[0], values[1], values[2]
	if year < minYear || year > maxYear {
		return Date{}, &ParseError{Value: raw, Reason: "year out of range"}
	}
	if month < 1 || month > 12 {
		return Date{}, &ParseError{Value: raw, Reason: "month out of range"}
	}
	parsed := New(year, time.Month(month), d)
	if parsed.day != d || parsed.month != time.Month(month) {
		return Date{}, &ParseError{Value: raw, Reason: "day out of range for month"}
	}
	return parsed, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParse is Parse for values known to be valid. It panics on malformed input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Year returns the year component.
func (d Date) Year() int { return d.year }

// Month returns the month component.
func (d Date) Month() time.Month { return d.month }

// Day returns the day of month.
func (d Date) Day() int { return d.day }

// String renders the canonical YYYY-MM-DD form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// Midnight returns 00:00 of the date in loc. A nil loc means UTC.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// AddDays moves the date by n calendar days. It panics if the result falls
// outside years 0001 to 9999, which Parse could not read back.
func (d Date) AddDays(n int) Date {
	moved := New(d.year, d.month, d.day+n)
	if moved.year < minYear || moved.year > maxYear {
		panic(fmt.Sprintf("dateonly: %s plus %d days leaves years %04d-%04d", d, n, minYear, maxYear))
	}
	return moved
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b Date) int {
	diff := b.Midnight(time.UTC).Sub(a.Midnight(time.UTC))
	return int(math.Round(float64(diff) / float64(day)))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool { return d.Compare(other) == 0 }

// Within reports whether lo <= d <= hi.
func (d Date) Within(lo, hi Date) bool {
	return !d.Before(lo) && !d.After(hi)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the zero Date.
func (d *Date) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer. Dates are stored as TEXT so that SQL string
// comparison orders them chronologically.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("dateonly: cannot scan %T", src)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
