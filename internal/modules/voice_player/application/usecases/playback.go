package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// ResumeOutput contains the result of the Resume use case.
type ResumeOutput struct {
	// Retried is set when stalled playback was restarted instead of unpaused.
	Retried bool
	Apply   *ApplyOutput
}

// StopInput contains the input for the Stop use case.
type StopInput struct {
	GuildID snowflake.ID
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTitle string
}

// NowPlayingOutput describes the current playback position.
type NowPlayingOutput struct {
	Title       string
	Reference   string
	Artist      string
	ArtworkURL  string
	Source      domain.TrackSource
	Elapsed     time.Duration
	Duration    time.Duration // zero when unknown
	IsLive      bool
	IsPaused    bool
	IsStalled   bool
	QueueLength int
}

// PlaybackService handles pause, resume, stop, skip and position queries.
type PlaybackService struct {
	engine    *PlaybackEngine
	repo      domain.PlayerStateRepository
	transport ports.VoiceTransport
	clock     domain.Clock
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(engine *PlaybackEngine) *PlaybackService {
	return &PlaybackService{
		engine:    engine,
		repo:      engine.repo,
		transport: engine.transport,
		clock:     engine.clock,
	}
}

// Pause pauses the current playback and freezes its position.
func (p *PlaybackService) Pause(ctx context.Context, input PauseInput) error {
	state := p.repo.Get(input.GuildID)
	if state == nil || !p.transport.IsConnected(input.GuildID) {
		return ErrNotConnected
	}
	state.SetNotificationChannelID(input.NotificationChannelID)

	if p.transport.IsPaused(input.GuildID) {
		return ErrAlreadyPaused
	}
	if !p.transport.IsPlaying(input.GuildID) {
		return ErrNotPlaying
	}

	now := p.clock.Now()
	state.MarkPaused(now)
	if err := p.transport.Pause(ctx, input.GuildID); err != nil {
		state.MarkResumed(now)
		return fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}

	return nil
}

// Resume resumes paused playback. When the previous re-application of the
// current item failed, Resume retries it instead.
func (p *PlaybackService) Resume(ctx context.Context, input ResumeInput) (*ResumeOutput, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}
	state.SetNotificationChannelID(input.NotificationChannelID)

	if meta := state.Playback(); meta != nil && meta.Stalled &&
		!p.transport.IsPlaying(input.GuildID) && !p.transport.IsPaused(input.GuildID) {
		return p.retryStalled(ctx, state, input)
	}

	if !p.transport.IsConnected(input.GuildID) {
		return nil, ErrNotConnected
	}
	if !p.transport.IsPaused(input.GuildID) {
		if p.transport.IsPlaying(input.GuildID) {
			return nil, ErrNotPaused
		}
		return nil, ErrNotPlaying
	}

	if err := p.transport.Resume(ctx, input.GuildID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}
	state.MarkResumed(p.clock.Now())

	return &ResumeOutput{}, nil
}

func (p *PlaybackService) retryStalled(
	ctx context.Context,
	state *domain.PlayerState,
	input ResumeInput,
) (*ResumeOutput, error) {
	state.LockAdvance()
	defer p.engine.releaseAdvance(state)

	snapshot := state.Snapshot(p.clock.Now())
	out, err := p.engine.Apply(ctx, ApplyInput{
		GuildID:        input.GuildID,
		UserID:         input.UserID,
		ReplyChannelID: input.NotificationChannelID,
		Snapshot:       snapshot,
	})
	if err != nil {
		return nil, err
	}

	return &ResumeOutput{Retried: true, Apply: out}, nil
}

// Stop stops the current playback without advancing. The queue is kept.
func (p *PlaybackService) Stop(ctx context.Context, input StopInput) error {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return ErrNotConnected
	}

	state.LockAdvance()
	defer p.engine.releaseAdvance(state)

	active := p.transport.IsPlaying(input.GuildID) || p.transport.IsPaused(input.GuildID)
	if !active && !state.HasPlayback() {
		return ErrNotPlaying
	}

	state.DetachPlayback()
	if active {
		if err := p.transport.Stop(ctx, input.GuildID); err != nil {
			return fmt.Errorf("%w: %w", ErrVoiceTransport, err)
		}
	}
	state.ClearPlayback()
	// A completion that raced with the stop must not start the next track.
	state.TakeAdvanceRequest()

	return nil
}

// Skip stops the current track. Its completion advances the queue.
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	state := p.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNotConnected
	}
	state.SetNotificationChannelID(input.NotificationChannelID)

	meta := state.Playback()
	title := ""
	if meta != nil {
		title = meta.Title
	}

	if !p.transport.IsPlaying(input.GuildID) && !p.transport.IsPaused(input.GuildID) {
		if meta == nil {
			return nil, ErrNotPlaying
		}
		// Stalled metadata has no running playback to complete.
		state.ClearPlayback()
		p.engine.StartIfIdle(ctx, state)
		return &SkipOutput{SkippedTitle: title}, nil
	}

	if err := p.transport.Stop(ctx, input.GuildID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}

	return &SkipOutput{SkippedTitle: title}, nil
}

// NowPlaying returns the current item and its position.
func (p *PlaybackService) NowPlaying(guildID snowflake.ID) (*NowPlayingOutput, error) {
	state := p.repo.Get(guildID)
	if state == nil {
		return nil, ErrNotPlaying
	}
	meta := state.Playback()
	if meta == nil {
		return nil, ErrNotPlaying
	}

	return &NowPlayingOutput{
		Title:       meta.Title,
		Reference:   meta.Reference,
		Artist:      meta.Artist,
		ArtworkURL:  meta.ArtworkURL,
		Source:      meta.Source,
		Elapsed:     meta.Offset(p.clock.Now()),
		Duration:    meta.Duration,
		IsLive:      meta.IsLive,
		IsPaused:    meta.IsPaused(),
		IsStalled:   meta.Stalled,
		QueueLength: state.QueueLen(),
	}, nil
}

// IsPaused reports whether the guild's playback is paused.
func (p *PlaybackService) IsPaused(guildID snowflake.ID) bool {
	return p.transport.IsPaused(guildID)
}
