package usecases

import (
	"time"

	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// EngineConfig bounds the external calls made by the playback engine.
type EngineConfig struct {
	ResolveTimeout time.Duration
	VoiceTimeout   time.Duration
}

// DefaultEngineConfig returns the timeouts used when none are configured.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ResolveTimeout: 30 * time.Second,
		VoiceTimeout:   10 * time.Second,
	}
}

// TrackFromMedia converts a resolved item into a queued track.
func TrackFromMedia(query string, media *ports.ResolvedMedia) *domain.Track {
	return &domain.Track{
		Query:      query,
		Reference:  media.Reference,
		Title:      media.Title,
		Artist:     media.Artist,
		Duration:   media.Duration,
		IsLive:     media.IsLive,
		Source:     domain.ParseTrackSource(media.SourceName),
		SourceID:   media.SourceID,
		ArtworkURL: media.ArtworkURL,
	}
}

// nowPlayingInfo builds the notification payload for started metadata.
func nowPlayingInfo(meta *domain.PlaybackMetadata, queueLength int) *ports.NowPlayingInfo {
	duration := "LIVE"
	if !meta.IsLive && meta.Duration > 0 {
		duration = domain.FormatTimestamp(meta.Duration)
	}
	return &ports.NowPlayingInfo{
		Title:       meta.Title,
		Artist:      meta.Artist,
		URI:         meta.Reference,
		ArtworkURL:  meta.ArtworkURL,
		Source:      meta.Source,
		SourceID:    meta.SourceID,
		Duration:    duration,
		IsLive:      meta.IsLive,
		RequesterID: meta.RequesterID,
		QueueLength: queueLength,
	}
}
