package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: defaults to the user's channel
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
	Moved          bool
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID snowflake.ID
}

// VoiceChannelService handles joining and leaving voice channels.
type VoiceChannelService struct {
	engine *PlaybackEngine
	repo   domain.PlayerStateRepository
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(engine *PlaybackEngine) *VoiceChannelService {
	return &VoiceChannelService{
		engine: engine,
		repo:   engine.repo,
	}
}

// Join connects to the requested voice channel or the user's current one,
// moving the bot when it is connected elsewhere in the guild.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	e := v.engine

	channelID := input.VoiceChannelID
	if channelID == 0 {
		userChannel, err := e.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user voice channel: %w", err)
		}
		if userChannel == 0 {
			return nil, ErrUserNotInVoice
		}
		channelID = userChannel
	}

	state := v.repo.GetOrCreate(input.GuildID)
	state.SetNotificationChannelID(input.NotificationChannelID)

	connected := e.transport.IsConnected(input.GuildID)
	if connected && state.VoiceChannelID() == channelID {
		return nil, ErrAlreadyConnected
	}

	if err := e.join(ctx, state, channelID); err != nil {
		return nil, err
	}

	return &JoinOutput{VoiceChannelID: channelID, Moved: connected}, nil
}

// Leave disconnects from voice and discards the guild's queue and playback.
func (v *VoiceChannelService) Leave(ctx context.Context, input LeaveInput) error {
	e := v.engine
	state := v.repo.Get(input.GuildID)
	if state == nil || !e.transport.IsConnected(input.GuildID) {
		return ErrNotConnected
	}

	state.LockAdvance()
	state.DetachPlayback()
	state.ClearQueue()
	err := e.transport.Leave(ctx, input.GuildID)
	state.ClearPlayback()
	state.TakeAdvanceRequest()
	state.UnlockAdvance()

	v.repo.Delete(input.GuildID)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrVoiceTransport, err)
	}
	return nil
}

// HandleBotDisconnected discards the guild session after the bot was
// removed from voice by someone else.
func (v *VoiceChannelService) HandleBotDisconnected(guildID snowflake.ID) {
	state := v.repo.Get(guildID)
	if state == nil {
		return
	}

	state.LockAdvance()
	state.DetachPlayback()
	state.ClearQueue()
	state.ClearPlayback()
	state.TakeAdvanceRequest()
	state.UnlockAdvance()

	v.repo.Delete(guildID)
	slog.Info("cleared session after voice disconnect", "guild", guildID)
}
