package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// ApplyInput contains the input for re-applying a resume snapshot.
type ApplyInput struct {
	GuildID        snowflake.ID
	UserID         snowflake.ID // used to join the caller's channel when disconnected
	ReplyChannelID snowflake.ID
	Snapshot       *domain.ResumeSnapshot
}

// ApplyOutput contains the result of re-applying a resume snapshot.
type ApplyOutput struct {
	Title  string
	Offset time.Duration
	// Degraded is set when the source could not be resumed at the requested
	// offset and was restarted from the beginning.
	Degraded bool
}

// Apply restarts a snapshot at its offset. It joins the caller's voice
// channel when needed and re-resolves the reference; stream endpoints are
// never reused. When resolution or the transport fails the guild keeps a
// stalled copy of the snapshot that a later resume retries.
//
// The caller must hold the guild's advance lock.
func (e *PlaybackEngine) Apply(ctx context.Context, input ApplyInput) (*ApplyOutput, error) {
	if input.Snapshot == nil || input.Snapshot.Reference == "" {
		return nil, ErrNothingToResume
	}

	state := e.repo.GetOrCreate(input.GuildID)
	state.SetNotificationChannelID(input.ReplyChannelID)

	if err := e.ensureConnected(ctx, state, input.UserID); err != nil {
		return nil, err
	}

	replyChannelID := input.ReplyChannelID
	if replyChannelID == 0 {
		replyChannelID = e.replyChannel(state, state.Playback())
	}

	result, err := e.launch(ctx, state, *input.Snapshot, replyChannelID)
	if err != nil {
		if errors.Is(err, ErrResolutionFailed) || errors.Is(err, ErrVoiceTransport) {
			state.MarkStalled(*input.Snapshot, e.clock.Now())
		}
		return nil, err
	}

	return &ApplyOutput{
		Title:    result.meta.Title,
		Offset:   result.meta.SeekBase,
		Degraded: result.degraded,
	}, nil
}
