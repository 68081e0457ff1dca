package domain

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PositionKind describes how a seek position is interpreted.
type PositionKind int

const (
	// PositionAbsolute is an offset from the start of the track.
	PositionAbsolute PositionKind = iota
	// PositionRelative is a signed offset from the current position.
	PositionRelative
	// PositionPercent is a fraction of the track duration.
	PositionPercent
)

var (
	secondsPattern = regexp.MustCompile(`^\d+$`)
	clockPattern   = regexp.MustCompile(`^\d+:\d{1,2}$|^\d+:\d{2}:\d{2}$`)
	percentPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
)

// maxOffsetSeconds caps parsed offsets so that current+offset cannot overflow.
const maxOffsetSeconds = int64(math.MaxInt64/2) / int64(time.Second)

// Position is a parsed seek expression.
type Position struct {
	Kind    PositionKind
	Offset  time.Duration // absolute or signed relative offset
	Percent float64
}

// ParsePosition parses a seek expression. Supported forms are seconds
// ("75"), "mm:ss", "hh:mm:ss", relative offsets ("+10", "-1:30") and
// percentages ("50%"). Whitespace is ignored.
func ParsePosition(expr string) (Position, error) {
	arg := strings.Join(strings.Fields(expr), "")
	if arg == "" {
		return Position{}, ErrInvalidTimeFormat
	}

	if number, ok := strings.CutSuffix(arg, "%"); ok {
		if !percentPattern.MatchString(number) {
			return Position{}, ErrInvalidTimeFormat
		}
		pct, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return Position{}, ErrInvalidTimeFormat
		}
		return Position{Kind: PositionPercent, Percent: pct}, nil
	}

	if arg[0] == '+' || arg[0] == '-' {
		offset, err := parseTimestamp(arg[1:])
		if err != nil {
			return Position{}, err
		}
		if arg[0] == '-' {
			offset = -offset
		}
		return Position{Kind: PositionRelative, Offset: offset}, nil
	}

	offset, err := parseTimestamp(arg)
	if err != nil {
		return Position{}, err
	}
	return Position{Kind: PositionAbsolute, Offset: offset}, nil
}

// Target resolves the position against the current offset and duration
// (zero when unknown) and clamps the result to the track bounds.
func (p Position) Target(current, duration time.Duration) (time.Duration, error) {
	var target time.Duration

	switch p.Kind {
	case PositionPercent:
		if duration <= 0 {
			return 0, ErrDurationUnknown
		}
		if p.Percent < 0 || p.Percent > 100 {
			return 0, ErrPercentOutOfRange
		}
		target = time.Duration(float64(duration) * p.Percent / 100)
	case PositionRelative:
		target = current + p.Offset
	default:
		target = p.Offset
	}

	return ClampOffset(target, duration), nil
}

// IsNear reports whether two offsets are within Epsilon of each other.
func IsNear(a, b time.Duration) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < Epsilon
}

// parseTimestamp parses seconds or a clock form. Values beyond
// maxOffsetSeconds saturate.
func parseTimestamp(text string) (time.Duration, error) {
	if !secondsPattern.MatchString(text) && !clockPattern.MatchString(text) {
		return 0, ErrInvalidTimeFormat
	}

	var total int64
	for part := range strings.SplitSeq(text, ":") {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, ErrInvalidTimeFormat
		}
		if err != nil || n > maxOffsetSeconds || total > (maxOffsetSeconds-n)/60 {
			return time.Duration(maxOffsetSeconds) * time.Second, nil
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}
