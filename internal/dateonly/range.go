package dateonly

import "fmt"

// Range is an inclusive span of calendar dates.
type Range struct {
	Start Date
	End   Date
}

// NewRange validates that start and end are set and ordered.
func NewRange(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate reports why the range cannot be used, if at all.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: range %s has an unset bound", ErrMalformed, r)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s", ErrInvertedRange, r)
	}
	return nil
}

// Valid is shorthand for Validate() == nil.
func (r Range) Valid() bool {
	return r.Validate() == nil
}

// Overlaps reports whether both inclusive ranges share at least one day.
// Touching boundaries count: [1,5] and [5,9] overlap on day 5.
func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains reports whether d falls inside the range.
func (r Range) Contains(d Date) bool {
	return d.Within(r.Start, r.End)
}

// Intersect returns the shared days of both ranges. ok is false when they do not overlap.
func (r Range) Intersect(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	return Range{Start: start, End: end}, true
}

// Days returns the number of calendar days covered, counting both ends.
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// String renders the range as "start..end".
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
