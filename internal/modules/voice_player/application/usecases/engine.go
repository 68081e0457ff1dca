package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// PlaybackEngine owns the path that turns a resume snapshot into audio:
// re-resolution, source preparation, transport start and completion
// watching. All services share one engine.
type PlaybackEngine struct {
	repo       domain.PlayerStateRepository
	resolver   ports.MediaResolver
	sources    ports.AudioSourceFactory
	transport  ports.VoiceTransport
	voiceState ports.VoiceStateProvider
	notifier   ports.NotificationSender
	clock      domain.Clock
	config     EngineConfig

	// ctx bounds completion watchers and queue advances triggered by them.
	ctx      context.Context
	watchers sync.WaitGroup
}

// NewPlaybackEngine creates a new PlaybackEngine. Watchers it spawns stop
// when ctx is cancelled.
func NewPlaybackEngine(
	ctx context.Context,
	repo domain.PlayerStateRepository,
	resolver ports.MediaResolver,
	sources ports.AudioSourceFactory,
	transport ports.VoiceTransport,
	voiceState ports.VoiceStateProvider,
	notifier ports.NotificationSender,
	clock domain.Clock,
	config EngineConfig,
) *PlaybackEngine {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &PlaybackEngine{
		repo:       repo,
		resolver:   resolver,
		sources:    sources,
		transport:  transport,
		voiceState: voiceState,
		notifier:   notifier,
		clock:      clock,
		config:     config,
		ctx:        ctx,
	}
}

// Wait blocks until all completion watchers have exited.
func (e *PlaybackEngine) Wait() {
	e.watchers.Wait()
}

// ensureConnected joins the caller's voice channel unless the bot is
// already connected in the guild.
func (e *PlaybackEngine) ensureConnected(
	ctx context.Context,
	state *domain.PlayerState,
	userID snowflake.ID,
) error {
	guildID := state.GuildID()
	if e.transport.IsConnected(guildID) {
		return nil
	}
	if userID == 0 {
		return ErrNotConnected
	}

	channelID, err := e.voiceState.GetUserVoiceChannel(guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to get user voice channel: %w", err)
	}
	if channelID == 0 {
		return fmt.Errorf("%w: %w", ErrNotConnected, ErrUserNotInVoice)
	}

	return e.join(ctx, state, channelID)
}

// join connects the transport to channelID, bounded by the voice timeout.
func (e *PlaybackEngine) join(
	ctx context.Context,
	state *domain.PlayerState,
	channelID snowflake.ID,
) error {
	joinCtx, cancel := context.WithTimeout(ctx, e.config.VoiceTimeout)
	defer cancel()

	if err := e.transport.Join(joinCtx, state.GuildID(), channelID); err != nil {
		return fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}
	state.SetVoiceChannelID(channelID)
	return nil
}

// resolve runs the media resolver, bounded by the resolve timeout.
func (e *PlaybackEngine) resolve(ctx context.Context, query string) ([]*ports.ResolvedMedia, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, e.config.ResolveTimeout)
	defer cancel()

	media, err := e.resolver.Resolve(resolveCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}
	if len(media) == 0 {
		return nil, ErrNoResults
	}
	return media, nil
}

// launchResult describes a started playback.
type launchResult struct {
	meta     *domain.PlaybackMetadata
	degraded bool
}

// launch re-resolves the snapshot reference and starts it at the snapshot
// offset, replacing the guild's playback metadata on success. Non-resumable
// sources are started from the beginning and reported as degraded.
func (e *PlaybackEngine) launch(
	ctx context.Context,
	state *domain.PlayerState,
	snapshot domain.ResumeSnapshot,
	replyChannelID snowflake.ID,
) (*launchResult, error) {
	guildID := state.GuildID()

	resolved, err := e.resolve(ctx, snapshot.Reference)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
		}
		return nil, err
	}
	media := resolved[0]

	endpoint, ok := media.BestEndpoint()
	if !ok {
		return nil, fmt.Errorf("%w: no playable stream", ErrResolutionFailed)
	}

	protocol := domain.ClassifyProtocol(endpoint.Protocol)
	duration := media.Duration
	if duration <= 0 {
		duration = snapshot.Duration
	}

	offset := domain.ClampOffset(snapshot.Offset, duration)
	degraded := false
	if offset > 0 && (media.IsLive || !protocol.Resumable()) {
		offset = 0
		degraded = true
	}

	voiceCtx, cancel := context.WithTimeout(ctx, e.config.VoiceTimeout)
	defer cancel()

	source, err := e.sources.Open(voiceCtx, endpoint, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}

	playback, err := e.transport.Play(voiceCtx, guildID, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}

	reference := media.Reference
	if reference == "" {
		reference = snapshot.Reference
	}
	title := media.Title
	if title == "" {
		title = snapshot.Title
	}

	meta := &domain.PlaybackMetadata{
		Reference:      reference,
		Title:          title,
		Artist:         media.Artist,
		Duration:       duration,
		StartedAt:      e.clock.Now(),
		SeekBase:       offset,
		IsLive:         media.IsLive,
		Protocol:       protocol,
		Source:         domain.ParseTrackSource(media.SourceName),
		SourceID:       media.SourceID,
		ArtworkURL:     media.ArtworkURL,
		RequesterID:    snapshot.RequesterID,
		ReplyChannelID: replyChannelID,
	}
	state.StartPlayback(meta, playback.ID())
	e.watch(guildID, playback)

	slog.Info("started playback",
		"guild", guildID,
		"track", title,
		"offset", offset,
		"protocol", protocol,
		"degraded", degraded,
	)

	return &launchResult{meta: meta, degraded: degraded}, nil
}

// watch waits for a playback to complete and advances the queue when it
// was still the guild's advancing playback.
func (e *PlaybackEngine) watch(guildID snowflake.ID, playback ports.Playback) {
	e.watchers.Add(1)
	go func() {
		defer e.watchers.Done()

		select {
		case err := <-playback.Done():
			e.onPlaybackDone(guildID, playback.ID(), err)
		case <-e.ctx.Done():
		}
	}()
}

// onPlaybackDone handles the completion of a playback.
func (e *PlaybackEngine) onPlaybackDone(guildID snowflake.ID, playbackID string, playErr error) {
	state := e.repo.Get(guildID)
	if state == nil {
		return
	}

	meta := state.Playback()
	if !state.FinishPlayback(playbackID) {
		slog.Debug("ignored completion of detached playback", "guild", guildID, "playback", playbackID)
		return
	}

	if playErr != nil {
		slog.Warn("playback ended with error", "guild", guildID, "error", playErr)
		e.sendError(e.replyChannel(state, meta), fmt.Sprintf("Playback error: %v", playErr))
	}

	e.Advance(guildID)
}

// replyChannel returns the channel to post playback notifications to:
// the metadata's reply channel, the guild's notification channel, or the
// guild's first text channel.
func (e *PlaybackEngine) replyChannel(state *domain.PlayerState, meta *domain.PlaybackMetadata) snowflake.ID {
	if meta != nil && meta.ReplyChannelID != 0 {
		return meta.ReplyChannelID
	}
	if channelID := state.NotificationChannelID(); channelID != 0 {
		return channelID
	}
	channelID, err := e.notifier.DefaultChannel(state.GuildID())
	if err != nil {
		slog.Warn("found no channel for notifications", "guild", state.GuildID(), "error", err)
		return 0
	}
	return channelID
}
