// Package booking holds the reservation window and lifecycle rules.
package booking

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange  = errors.New("booking: end_time must be after start_time")
	ErrStartInPast   = errors.New("booking: start_time must be in the future")
	ErrMissingBounds = errors.New("booking: start_time and end_time are required")
)

// Range is a half-open interval [Start, End). Two ranges that only touch at a
// boundary do not overlap, so back-to-back stays are allowed.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange normalizes both ends to UTC with second precision and validates order.
func NewRange(start, end time.Time) (Range, error) {
	r := Range{Start: normalize(start), End: normalize(end)}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrMissingBounds
	}
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// ValidateAt additionally requires the range to start strictly after now.
func (r Range) ValidateAt(now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if !r.Start.After(now) {
		return ErrStartInPast
	}
	return nil
}

func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

func (r Range) Adjacent(other Range) bool {
	return r.End.Equal(other.Start) || r.Start.Equal(other.End)
}

func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Nights counts started 24h periods; a 14:00 to 11:00 stay over three days is 3 nights.
func (r Range) Nights() int {
	d := r.Duration()
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	return n
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
