package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Playback is a handle to one started stream.
type Playback interface {
	// ID uniquely identifies the playback.
	ID() string

	// Done yields exactly one value when the stream ends or is stopped:
	// nil on a clean end, the playback error otherwise.
	Done() <-chan error
}

// VoiceTransport sends audio to a guild voice channel.
type VoiceTransport interface {
	// Join connects to a voice channel, moving if already connected.
	Join(ctx context.Context, guildID, channelID snowflake.ID) error

	// Leave disconnects from the voice channel.
	Leave(ctx context.Context, guildID snowflake.ID) error

	// Play starts source, replacing anything currently playing.
	Play(ctx context.Context, guildID snowflake.ID, source *AudioSource) (Playback, error)

	// Stop ends the current stream. Its Playback resolves immediately.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// Pause pauses the current stream.
	Pause(ctx context.Context, guildID snowflake.ID) error

	// Resume resumes the paused stream.
	Resume(ctx context.Context, guildID snowflake.ID) error

	IsConnected(guildID snowflake.ID) bool
	IsPlaying(guildID snowflake.ID) bool
	IsPaused(guildID snowflake.ID) bool
}
