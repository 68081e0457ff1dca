package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Track represents a queued request for a playable item.
// Stream endpoints are never stored on a track; they are re-resolved from
// Reference when the track starts.
type Track struct {
	Query       string // what the user typed
	Reference   string // stable page URL used for re-resolution
	Title       string
	Artist      string
	Duration    time.Duration // zero when unknown or live
	IsLive      bool
	Source      TrackSource
	SourceID    string
	ArtworkURL  string
	RequesterID snowflake.ID
	EnqueuedAt  time.Time
}

// FormattedDuration returns the duration as h:mm:ss or m:ss,
// or "LIVE/Unknown" for live tracks and tracks without a known duration.
func (t *Track) FormattedDuration() string {
	if t.IsLive || t.Duration <= 0 {
		return "LIVE/Unknown"
	}
	return FormatTimestamp(t.Duration)
}

// ResolveKey returns the string handed to the media resolver to obtain
// fresh endpoints for this track.
func (t *Track) ResolveKey() string {
	if t.Reference != "" {
		return t.Reference
	}
	return t.Query
}
