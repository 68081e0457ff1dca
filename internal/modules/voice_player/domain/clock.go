package domain

import "time"

// Clock provides the current time.
// Values returned by the system clock carry a monotonic reading, so
// differences between them are unaffected by wall-clock adjustments.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
