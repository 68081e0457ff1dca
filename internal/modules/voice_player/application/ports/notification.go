package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// NowPlayingInfo contains information for a "Now Playing" notification.
type NowPlayingInfo struct {
	Title       string
	Artist      string
	URI         string
	ArtworkURL  string
	Source      domain.TrackSource
	SourceID    string
	Duration    string
	IsLive      bool
	RequesterID snowflake.ID
	QueueLength int
}

// NotificationSender posts messages to guild text channels.
type NotificationSender interface {
	// SendNowPlaying sends a "Now Playing" embed.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) error

	// SendInfo sends a plain informational message.
	SendInfo(channelID snowflake.ID, message string) error

	// SendError sends an error message.
	SendError(channelID snowflake.ID, message string) error

	// DefaultChannel returns the first text channel of a guild the bot can post to.
	DefaultChannel(guildID snowflake.ID) (snowflake.ID, error)
}
