package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
)

// SayInput contains the input for the Say use case.
type SayInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	Text                  string
}

// SayOutput contains the result of the Say use case.
type SayOutput struct {
	// Interrupted is set when an item was playing and a resume was attempted.
	Interrupted bool
	// Resumed is set when the interrupted item was restarted.
	Resumed bool
	Apply   *ApplyOutput
	// SpeechErr reports a failure of the speech stream itself.
	SpeechErr error
	// ResumeErr reports a failure to restart the interrupted item.
	ResumeErr error
	// Warning is set when playback was active but its position could not be captured.
	Warning string
}

// SpeechService speaks text into the voice channel, interrupting and then
// resuming whatever was playing.
type SpeechService struct {
	engine      *PlaybackEngine
	synthesizer ports.SpeechSynthesizer
}

// NewSpeechService creates a new SpeechService.
func NewSpeechService(engine *PlaybackEngine, synthesizer ports.SpeechSynthesizer) *SpeechService {
	return &SpeechService{
		engine:      engine,
		synthesizer: synthesizer,
	}
}

// Say plays speech for text and blocks until it finishes and the
// interrupted item, if any, has been restarted at its captured position.
// Non-resumable items are never interrupted.
func (s *SpeechService) Say(ctx context.Context, input SayInput) (*SayOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrEmptySpeech
	}

	e := s.engine
	state := e.repo.GetOrCreate(input.GuildID)
	state.SetNotificationChannelID(input.NotificationChannelID)

	if err := e.ensureConnected(ctx, state, input.UserID); err != nil {
		return nil, err
	}

	endpoint, err := s.synthesizer.Endpoint(text)
	if err != nil {
		return nil, fmt.Errorf("failed to build speech stream: %w", err)
	}

	state.LockAdvance()
	defer e.releaseAdvance(state)

	out := &SayOutput{}
	guildID := input.GuildID
	playing := e.transport.IsPlaying(guildID)
	paused := e.transport.IsPaused(guildID)

	snapshot := state.Snapshot(e.clock.Now())
	if playing || paused {
		if snapshot == nil {
			out.Warning = "Could not capture the playback position; it will not be resumed."
		} else if !snapshot.Resumable {
			return nil, ErrRefuseInterrupt
		}
	} else {
		snapshot = nil
	}

	state.DetachPlayback()
	if playing || paused {
		if err := e.transport.Stop(ctx, guildID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVoiceTransport, err)
		}
	}

	out.SpeechErr = s.speak(ctx, guildID, endpoint)
	if out.SpeechErr != nil {
		slog.Warn("speech failed", "guild", guildID, "error", out.SpeechErr)
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	if snapshot == nil {
		return out, nil
	}

	out.Interrupted = true
	// A kick during speech leaves the session to HandleBotDisconnected.
	if e.repo.Get(guildID) != state || !e.transport.IsConnected(guildID) {
		out.ResumeErr = ErrNotConnected
		return out, nil
	}
	applied, err := e.Apply(ctx, ApplyInput{
		GuildID:        guildID,
		UserID:         input.UserID,
		ReplyChannelID: input.NotificationChannelID,
		Snapshot:       snapshot,
	})
	if err != nil {
		out.ResumeErr = err
		return out, nil
	}
	out.Resumed = true
	out.Apply = applied

	if paused {
		if err := e.transport.Pause(ctx, guildID); err != nil {
			slog.Warn("failed to restore pause after speech", "guild", guildID, "error", err)
		} else {
			state.MarkPaused(e.clock.Now())
		}
	}

	return out, nil
}

// speak plays endpoint and waits for it to finish.
func (s *SpeechService) speak(
	ctx context.Context,
	guildID snowflake.ID,
	endpoint ports.StreamEndpoint,
) error {
	e := s.engine

	voiceCtx, cancel := context.WithTimeout(ctx, e.config.VoiceTimeout)
	defer cancel()

	source, err := e.sources.Open(voiceCtx, endpoint, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}
	playback, err := e.transport.Play(voiceCtx, guildID, source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}

	select {
	case err := <-playback.Done():
		return err
	case <-ctx.Done():
		if err := e.transport.Stop(context.Background(), guildID); err != nil {
			slog.Warn("failed to stop speech", "guild", guildID, "error", err)
		}
		return ctx.Err()
	}
}
