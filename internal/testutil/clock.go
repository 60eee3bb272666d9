package testutil

import (
	"time"

	"github.com/roach88/nlq/internal/clock"
)

// IST is a fixed +05:30 zone, so tests do not depend on the host's zone
// database.
var IST = time.FixedZone("IST", 5*3600+30*60)

// FixedNow is the anchor used across translator tests: 2024-03-15 10:00 IST,
// a Friday.
var FixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, IST)

// NewFixedClock returns a clock frozen at FixedNow.
func NewFixedClock() *clock.Fixed {
	return clock.NewFixed(FixedNow)
}

// Date builds a midnight timestamp in IST.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, IST)
}
