package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// Advance starts the next queued track if the guild is idle. It is called
// on playback completion and never blocks: when another goroutine holds the
// guild's advance lock, the request is left for that holder to run before
// it releases the lock. Duplicate triggers start at most one track.
func (e *PlaybackEngine) Advance(guildID snowflake.ID) {
	state := e.repo.Get(guildID)
	if state == nil {
		return
	}

	state.RequestAdvance()
	if !state.TryLockAdvance() {
		slog.Debug("deferred advance to lock holder", "guild", guildID)
		return
	}
	e.releaseAdvance(state)
}

// StartIfIdle starts the next queued track if the guild is idle, waiting
// for any in-flight advance to finish first. It returns the started track,
// or nil when something was already playing or the queue was empty.
func (e *PlaybackEngine) StartIfIdle(ctx context.Context, state *domain.PlayerState) *domain.Track {
	state.LockAdvance()
	defer e.releaseAdvance(state)

	return e.advanceLocked(ctx, state)
}

// releaseAdvance runs pending advance requests and releases the lock.
// A request that arrives between the last check and the unlock is picked
// up by retrying the lock.
func (e *PlaybackEngine) releaseAdvance(state *domain.PlayerState) {
	for {
		for state.TakeAdvanceRequest() {
			e.advanceLocked(e.ctx, state)
		}
		state.UnlockAdvance()

		if !state.AdvanceRequested() || !state.TryLockAdvance() {
			return
		}
	}
}

// advanceLocked pops and starts tracks until one starts or the queue is
// empty. The caller must hold the advance lock.
func (e *PlaybackEngine) advanceLocked(ctx context.Context, state *domain.PlayerState) *domain.Track {
	guildID := state.GuildID()

	for {
		if e.transport.IsPlaying(guildID) || e.transport.IsPaused(guildID) {
			return nil
		}

		track := state.PopFront()
		if track == nil {
			return nil
		}

		channelID := e.replyChannel(state, nil)
		result, err := e.launch(ctx, state, domain.SnapshotFromTrack(track), channelID)
		if err != nil {
			slog.Warn("failed to start queued track",
				"guild", guildID,
				"track", track.Title,
				"error", err,
			)
			e.sendError(channelID, fmt.Sprintf("Failed to play **%s**: %v", track.Title, err))
			continue
		}

		if channelID != 0 {
			info := nowPlayingInfo(result.meta, state.QueueLen())
			if err := e.notifier.SendNowPlaying(channelID, info); err != nil {
				slog.Warn("failed to send now playing", "guild", guildID, "error", err)
			}
		}
		return track
	}
}

// sendError posts an error message, logging delivery failures.
func (e *PlaybackEngine) sendError(channelID snowflake.ID, message string) {
	if channelID == 0 {
		return
	}
	if err := e.notifier.SendError(channelID, message); err != nil {
		slog.Warn("failed to send error message", "channel", channelID, "error", err)
	}
}
