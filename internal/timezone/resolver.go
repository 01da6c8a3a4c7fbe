// Package timezone turns "what day is it for this project" into UTC instants.
//
// Every zone lookup goes through Fallback first, so callers never invent their own
// default. Day bounds are built from local wall-clock fields of the zone and only
// then converted to UTC, which keeps DST transition days at 23 or 25 hours.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/onrope-scheduler/internal/dateonly"
)

// DefaultTimezone applies when neither the project nor the company names a zone.
const DefaultTimezone = "America/Vancouver"

const locationCacheSize = 128

// ErrUnknownTimezone is returned for identifiers missing from the tz database.
var ErrUnknownTimezone = errors.New("timezone: unknown timezone")

var locations = mustLocationCache(locationCacheSize)

func mustLocationCache(size int) *lru.Cache[string, *time.Location] {
	cache, err := lru.New[string, *time.Location](size)
	if err != nil {
		panic(err)
	}
	return cache
}

// Fallback picks the zone for a project: the project's own, then the company's,
// then DefaultTimezone. Blank values count as absent.
func Fallback(projectTZ, companyTZ string) string {
	if tz := strings.TrimSpace(projectTZ); tz != "" {
		return tz
	}
	if tz := strings.TrimSpace(companyTZ); tz != "" {
		return tz
	}
	return DefaultTimezone
}

// Load returns the location for an IANA identifier.
func Load(tz string) (*time.Location, error) {
	name := strings.TrimSpace(tz)
	if name == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownTimezone)
	}
	if loc, ok := locations.Get(name); ok {
		return loc, nil
	}
	// "Local" would make results depend on the host.
	if strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}
	locations.Add(name, loc)
	return loc, nil
}

// Validate reports whether tz can be loaded.
func Validate(tz string) error {
	_, err := Load(tz)
	return err
}

// Bounds is the first and last instant of one calendar day in a zone.
type Bounds struct {
	Timezone string
	Date     dateonly.Date
	StartUTC time.Time
	EndUTC   time.Time
}

// Contains reports whether t falls within the day, both ends included.
func (b Bounds) Contains(t time.Time) bool {
	return !t.Before(b.StartUTC) && !t.After(b.EndUTC)
}

// Duration is the length of the day. It is 23h or 25h on DST transition days.
func (b Bounds) Duration() time.Duration {
	return b.EndUTC.Add(time.Millisecond).Sub(b.StartUTC)
}

// DayBounds returns the bounds of the day that contains reference, as observed in tz.
func DayBounds(tz string, reference time.Time) (Bounds, error) {
	loc, err := Load(tz)
	if err != nil {
		return Bounds{}, err
	}
	return boundsFor(tz, loc, dateonly.FromTime(reference.In(loc))), nil
}

// BoundsForDate returns the bounds of a given calendar date in tz.
func BoundsForDate(tz string, date dateonly.Date) (Bounds, error) {
	if date.IsZero() {
		return Bounds{}, fmt.Errorf("%w: date is unset", dateonly.ErrMalformed)
	}
	loc, err := Load(tz)
	if err != nil {
		return Bounds{}, err
	}
	return boundsFor(tz, loc, date), nil
}

// DateIn returns the calendar date of t in tz.
func DateIn(tz string, t time.Time) (dateonly.Date, error) {
	loc, err := Load(tz)
	if err != nil {
		return dateonly.Date{}, err
	}
	return dateonly.FromTime(t.In(loc)), nil
}

func boundsFor(tz string, loc *time.Location, date dateonly.Date) Bounds {
	start := firstInstant(loc, date.Year(), date.Month(), date.Day())
	next := firstInstant(loc, date.Year(), date.Month(), date.Day()+1)
	return Bounds{
		Timezone: strings.TrimSpace(tz),
		Date:     date,
		StartUTC: start.UTC(),
		EndUTC:   next.Add(-time.Millisecond).UTC(),
	}
}

// firstInstant returns the earliest instant of the calendar day in loc. Where a
// DST change skips local midnight, the day starts at the transition instead.
func firstInstant(loc *time.Location, year int, month time.Month, day int) time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if want := dateonly.New(year, month, day); dateonly.FromTime(t) != want {
		_, t = t.ZoneBounds()
	}
	return t
}
