package domain

import (
	"fmt"
	"time"
)

// Epsilon is the tolerance used for clamping offsets below the track end
// and for detecting no-op seeks.
const Epsilon = 250 * time.Millisecond

// ClampOffset bounds an offset to [0, duration-Epsilon] when the duration
// is known, or to [0, inf) when duration is zero.
func ClampOffset(offset, duration time.Duration) time.Duration {
	if offset < 0 {
		offset = 0
	}
	if duration > 0 {
		limit := max(duration-Epsilon, 0)
		if offset > limit {
			offset = limit
		}
	}
	return offset
}

// FormatTimestamp renders a position as h:mm:ss, or m:ss below one hour.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
