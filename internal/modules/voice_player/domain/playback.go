package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// PlaybackMetadata describes the item currently loaded into the voice
// transport and the anchors needed to compute its position.
//
// The current offset is SeekBase plus the time elapsed since StartedAt,
// frozen at PausedAt while paused.
type PlaybackMetadata struct {
	Reference      string
	Title          string
	Artist         string
	Duration       time.Duration // zero when unknown
	StartedAt      time.Time
	SeekBase       time.Duration
	PausedAt       *time.Time // non-nil iff paused
	IsLive         bool
	Protocol       ProtocolClass
	Source         TrackSource
	SourceID       string
	ArtworkURL     string
	RequesterID    snowflake.ID
	ReplyChannelID snowflake.ID
	// Stalled marks metadata whose re-application failed. The offset stays
	// frozen at SeekBase until a retry succeeds or another track starts.
	Stalled bool
}

// Clone returns a deep copy of the metadata.
func (m *PlaybackMetadata) Clone() *PlaybackMetadata {
	if m == nil {
		return nil
	}
	clone := *m
	if m.PausedAt != nil {
		pausedAt := *m.PausedAt
		clone.PausedAt = &pausedAt
	}
	return &clone
}

// IsPaused reports whether the pause anchor is set.
func (m *PlaybackMetadata) IsPaused() bool {
	return m.PausedAt != nil
}

// Elapsed returns the playing time since the last anchor reset.
func (m *PlaybackMetadata) Elapsed(now time.Time) time.Duration {
	if m.Stalled || m.StartedAt.IsZero() {
		return 0
	}
	end := now
	if m.PausedAt != nil {
		end = *m.PausedAt
	}
	return end.Sub(m.StartedAt)
}

// Offset returns the current position into the track, clamped to the
// track bounds.
func (m *PlaybackMetadata) Offset(now time.Time) time.Duration {
	return ClampOffset(m.SeekBase+max(0, m.Elapsed(now)), m.Duration)
}

// Resumable reports whether the item can be restarted at an offset.
func (m *PlaybackMetadata) Resumable() bool {
	return !m.IsLive && m.Protocol.Resumable()
}

// MarkPaused records the pause anchor. Calling it while already paused
// keeps the original anchor.
func (m *PlaybackMetadata) MarkPaused(now time.Time) {
	if m.PausedAt != nil {
		return
	}
	m.PausedAt = &now
}

// MarkResumed folds the paused elapsed time into SeekBase and restarts
// the elapsed clock at now.
func (m *PlaybackMetadata) MarkResumed(now time.Time) {
	if m.PausedAt == nil {
		return
	}
	m.SeekBase += max(0, m.PausedAt.Sub(m.StartedAt))
	m.StartedAt = now
	m.PausedAt = nil
}

// Snapshot captures what is needed to restart the item at its current
// position. It returns nil when no playback has started.
func (m *PlaybackMetadata) Snapshot(now time.Time) *ResumeSnapshot {
	if m == nil || m.StartedAt.IsZero() {
		return nil
	}
	return &ResumeSnapshot{
		Reference:   m.Reference,
		Title:       m.Title,
		Artist:      m.Artist,
		Duration:    m.Duration,
		Offset:      m.Offset(now),
		Resumable:   m.Resumable(),
		IsLive:      m.IsLive,
		Source:      m.Source,
		SourceID:    m.SourceID,
		ArtworkURL:  m.ArtworkURL,
		RequesterID: m.RequesterID,
	}
}

// ResumeSnapshot is a point-in-time description of the playing item.
// It is derived on demand and never stored.
type ResumeSnapshot struct {
	Reference   string
	Title       string
	Artist      string
	Duration    time.Duration
	Offset      time.Duration
	Resumable   bool
	IsLive      bool
	Source      TrackSource
	SourceID    string
	ArtworkURL  string
	RequesterID snowflake.ID
}

// WithOffset returns a copy of the snapshot positioned at offset.
func (s ResumeSnapshot) WithOffset(offset time.Duration) ResumeSnapshot {
	s.Offset = offset
	return s
}

// SnapshotFromTrack builds a snapshot that starts a queued track from the beginning.
func SnapshotFromTrack(t *Track) ResumeSnapshot {
	return ResumeSnapshot{
		Reference:   t.ResolveKey(),
		Title:       t.Title,
		Artist:      t.Artist,
		Duration:    t.Duration,
		Resumable:   !t.IsLive,
		IsLive:      t.IsLive,
		Source:      t.Source,
		SourceID:    t.SourceID,
		ArtworkURL:  t.ArtworkURL,
		RequesterID: t.RequesterID,
	}
}
