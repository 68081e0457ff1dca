package domain

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// PlayerState is the per-guild session: the queue, the metadata of the
// item loaded into the voice transport and the channels in use.
//
// All accessors are safe for concurrent use. The advance lock is separate
// from the data lock and serializes the check-idle, pop and start sequence.
type PlayerState struct {
	mu sync.Mutex

	guildID               snowflake.ID
	voiceChannelID        snowflake.ID
	notificationChannelID snowflake.ID
	queue                 Queue
	playback              *PlaybackMetadata
	playbackID            string // handle whose completion may advance the queue

	advanceMu        sync.Mutex
	advanceRequested atomic.Bool
}

// NewPlayerState creates a new PlayerState for the given guild.
func NewPlayerState(guildID snowflake.ID) *PlayerState {
	return &PlayerState{
		guildID: guildID,
		queue:   NewQueue(),
	}
}

// GuildID returns the guild ID.
func (p *PlayerState) GuildID() snowflake.ID {
	// No lock: guildID is never modified after construction
	return p.guildID
}

// VoiceChannelID returns the voice channel the bot is connected to, or 0.
func (p *PlayerState) VoiceChannelID() snowflake.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceChannelID
}

// SetVoiceChannelID updates the voice channel ID.
func (p *PlayerState) SetVoiceChannelID(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceChannelID = channelID
}

// NotificationChannelID returns the text channel used for notifications.
func (p *PlayerState) NotificationChannelID() snowflake.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notificationChannelID
}

// SetNotificationChannelID updates the notification channel. Zero is ignored.
func (p *PlayerState) SetNotificationChannelID(channelID snowflake.ID) {
	if channelID == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notificationChannelID = channelID
}

// Enqueue appends tracks to the queue and returns the new queue length.
func (p *PlayerState) Enqueue(tracks ...*Track) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.Enqueue(tracks...)
	return p.queue.Len()
}

// PopFront removes and returns the next queued track, or nil.
func (p *PlayerState) PopFront() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.PopFront()
}

// RemoveAt removes the track at a 1-based queue position.
func (p *PlayerState) RemoveAt(position int) (*Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.RemoveAt(position)
}

// ClearQueue empties the queue and returns how many tracks were removed.
func (p *PlayerState) ClearQueue() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Clear()
}

// ShuffleQueue shuffles the queue when it holds at least two tracks and
// returns the queue length.
func (p *PlayerState) ShuffleQueue(shuffle func(n int, swap func(i, j int))) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue.Len() >= 2 {
		p.queue.Shuffle(shuffle)
	}
	return p.queue.Len()
}

// QueueLen returns the number of queued tracks.
func (p *PlayerState) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// QueueList returns a copy of the queued tracks.
func (p *PlayerState) QueueList() []*Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.List()
}

// Playback returns a copy of the current playback metadata, or nil.
func (p *PlayerState) Playback() *PlaybackMetadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playback.Clone()
}

// HasPlayback reports whether playback metadata is present.
func (p *PlayerState) HasPlayback() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playback != nil
}

// StartPlayback replaces the playback metadata and records the handle
// whose completion is allowed to advance the queue.
func (p *PlayerState) StartPlayback(meta *PlaybackMetadata, playbackID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playback = meta.Clone()
	p.playbackID = playbackID
}

// ClearPlayback removes the playback metadata and the advancing handle.
func (p *PlayerState) ClearPlayback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playback = nil
	p.playbackID = ""
}

// DetachPlayback clears the advancing handle so that the completion of the
// current playback does not advance the queue. Metadata is kept.
func (p *PlayerState) DetachPlayback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playbackID = ""
}

// FinishPlayback clears the metadata if id is still the advancing handle
// and reports whether it was.
func (p *PlayerState) FinishPlayback(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == "" || p.playbackID != id {
		return false
	}
	p.playback = nil
	p.playbackID = ""
	return true
}

// IsCurrentPlayback reports whether id is the handle allowed to advance the queue.
func (p *PlayerState) IsCurrentPlayback(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return id != "" && p.playbackID == id
}

// MarkPaused sets the pause anchor. It returns false without metadata.
func (p *PlayerState) MarkPaused(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playback == nil {
		return false
	}
	p.playback.MarkPaused(now)
	return true
}

// MarkResumed folds the pause anchor into the seek base. It returns false
// without metadata.
func (p *PlayerState) MarkResumed(now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playback == nil {
		return false
	}
	p.playback.MarkResumed(now)
	return true
}

// MarkStalled replaces the metadata with a frozen copy positioned at the
// snapshot offset, used when re-applying a snapshot fails.
func (p *PlayerState) MarkStalled(snapshot ResumeSnapshot, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	meta := &PlaybackMetadata{
		Reference:   snapshot.Reference,
		Title:       snapshot.Title,
		Artist:      snapshot.Artist,
		Duration:    snapshot.Duration,
		StartedAt:   now,
		SeekBase:    snapshot.Offset,
		IsLive:      snapshot.IsLive,
		Source:      snapshot.Source,
		SourceID:    snapshot.SourceID,
		ArtworkURL:  snapshot.ArtworkURL,
		RequesterID: snapshot.RequesterID,
		Stalled:     true,
	}
	if !snapshot.Resumable {
		meta.Protocol = ProtocolSegmented
	}
	if p.playback != nil {
		meta.ReplyChannelID = p.playback.ReplyChannelID
	}
	p.playback = meta
	p.playbackID = ""
}

// Snapshot captures the current playback position, or nil without metadata.
func (p *PlayerState) Snapshot(now time.Time) *ResumeSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playback.Snapshot(now)
}

// TryLockAdvance attempts to take the advance lock without blocking.
func (p *PlayerState) TryLockAdvance() bool {
	return p.advanceMu.TryLock()
}

// LockAdvance takes the advance lock, blocking until it is available.
func (p *PlayerState) LockAdvance() {
	p.advanceMu.Lock()
}

// UnlockAdvance releases the advance lock.
func (p *PlayerState) UnlockAdvance() {
	p.advanceMu.Unlock()
}

// RequestAdvance records that an advance is wanted. The current holder of
// the advance lock runs it before releasing.
func (p *PlayerState) RequestAdvance() {
	p.advanceRequested.Store(true)
}

// TakeAdvanceRequest clears a pending advance request and reports whether
// one was set.
func (p *PlayerState) TakeAdvanceRequest() bool {
	return p.advanceRequested.CompareAndSwap(true, false)
}

// AdvanceRequested reports whether an advance request is pending.
func (p *PlayerState) AdvanceRequested() bool {
	return p.advanceRequested.Load()
}
