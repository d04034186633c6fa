package fuzzing

import (
	"math/rand"
	"time"

	testutil "influence-backend/test/util"
)

// clockShim is a chrono.API whose time only moves when a step moves it.
type clockShim struct {
	current   time.Time
	increment func(rndm *rand.Rand) int
	rndm      *rand.Rand
}

func newClockShim(rndm *rand.Rand) *clockShim {
	return &clockShim{
		current: time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC),
		// 0: (0, 60) minutes, stays on the same day most of the time
		// 1: (0, 24) hours
		// 2: (0, 7) days
		increment: testutil.RandomSwitch(3, 4, 2),
		rndm:      rndm,
	}
}

func (s *clockShim) randDuration() time.Duration {
	switch s.increment(s.rndm) {
	case 0:
		return time.Duration(s.rndm.Intn(59)+1) * time.Minute
	case 1:
		return time.Duration(s.rndm.Intn(23)+1) * time.Hour
	default:
		return time.Duration(s.rndm.Intn(6)+1) * 24 * time.Hour
	}
}

func (s *clockShim) Now() time.Time {
	return s.current
}

func (s *clockShim) Location() *time.Location {
	return time.UTC
}
