package domain

import "errors"

// Domain errors for the voice player module.
var (
	// ErrInvalidTimeFormat is returned when a seek position cannot be parsed.
	ErrInvalidTimeFormat = errors.New(
		"invalid time, use seconds, mm:ss, hh:mm:ss, +/- offsets or a percentage",
	)

	// ErrPercentOutOfRange is returned when a percentage seek is outside 0-100.
	ErrPercentOutOfRange = errors.New("percentage must be between 0 and 100")

	// ErrDurationUnknown is returned when a percentage seek targets a track without a known duration.
	ErrDurationUnknown = errors.New("cannot use % seek, track duration is unknown")

	// ErrInvalidPosition is returned when a queue position is out of range.
	ErrInvalidPosition = errors.New("index out of range")
)
