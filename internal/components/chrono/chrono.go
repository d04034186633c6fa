package chrono

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// API is the clock used for dating runs, so that tests can pin the date.
type API interface {
	Now() time.Time
	Location() *time.Location
}

type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl returns a clock in the given IANA time zone, an empty name
// means UTC.
func NewStandardImpl(timezone string) (StandardImpl, error) {
	if timezone == "" {
		return StandardImpl{location: time.UTC}, nil
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return StandardImpl{}, fmt.Errorf("load location %q: %w", timezone, err)
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}

// Date truncates t to a YYYY-MM-DD string in t's location.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}
