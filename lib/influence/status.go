package influence

import (
	"errors"
	"fmt"
)

var ErrUnknownStatus = errors.New("unknown status")

// Status is the data-quality tag carried by every PlatformSample.
type Status int

const (
	// StatusError means the fetch was attempted and failed with no substitute.
	StatusError Status = iota
	// StatusSuccess means the value came from an authoritative source in this run.
	StatusSuccess
	// StatusEstimated means a substitute value was supplied.
	StatusEstimated
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEstimated:
		return "estimated"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Scored reports whether samples with this status count toward a score.
func (s Status) Scored() bool {
	switch s {
	case StatusSuccess, StatusEstimated:
		return true
	case StatusError:
		return false
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "success":
		return StatusSuccess, nil
	case "estimated":
		return StatusEstimated, nil
	case "error":
		return StatusError, nil
	}
	return StatusError, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusSuccess, StatusEstimated, StatusError:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
