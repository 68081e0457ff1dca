package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// SeekInput contains the input for the Seek use case.
type SeekInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	Position              string // seek expression, e.g. "90", "+10", "1:30", "50%"
}

// SeekOutput contains the result of the Seek use case.
type SeekOutput struct {
	Target time.Duration
	// AlreadyNear is set when the target was within Epsilon of the current
	// position and nothing was done.
	AlreadyNear bool
	Apply       *ApplyOutput
}

// SeekService moves playback to a new position.
type SeekService struct {
	engine *PlaybackEngine
}

// NewSeekService creates a new SeekService.
func NewSeekService(engine *PlaybackEngine) *SeekService {
	return &SeekService{engine: engine}
}

// Seek validates the position against the current item and restarts it at
// the target offset.
func (s *SeekService) Seek(ctx context.Context, input SeekInput) (*SeekOutput, error) {
	e := s.engine
	state := e.repo.Get(input.GuildID)
	if state == nil {
		return nil, ErrNothingToSeek
	}

	state.LockAdvance()
	defer e.releaseAdvance(state)

	snapshot := state.Snapshot(e.clock.Now())
	if snapshot == nil {
		return nil, ErrNothingToSeek
	}
	if !snapshot.Resumable {
		return nil, ErrNotSeekable
	}

	position, err := domain.ParsePosition(input.Position)
	if err != nil {
		return nil, err
	}
	target, err := position.Target(snapshot.Offset, snapshot.Duration)
	if err != nil {
		return nil, err
	}

	if domain.IsNear(target, snapshot.Offset) {
		return &SeekOutput{Target: target, AlreadyNear: true}, nil
	}

	state.DetachPlayback()
	if e.transport.IsPlaying(input.GuildID) || e.transport.IsPaused(input.GuildID) {
		if err := e.transport.Stop(ctx, input.GuildID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVoiceTransport, err)
		}
	}

	moved := snapshot.WithOffset(target)
	out, err := e.Apply(ctx, ApplyInput{
		GuildID:        input.GuildID,
		UserID:         input.UserID,
		ReplyChannelID: input.NotificationChannelID,
		Snapshot:       &moved,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("seeked", "guild", input.GuildID, "from", snapshot.Offset, "to", out.Offset)

	return &SeekOutput{Target: out.Offset, Apply: out}, nil
}
