package domain

// TrackSource represents the origin platform of a track.
type TrackSource string

const (
	TrackSourceYouTube    TrackSource = "youtube"
	TrackSourceSoundCloud TrackSource = "soundcloud"
	TrackSourceTwitch     TrackSource = "twitch"
	TrackSourceBandcamp   TrackSource = "bandcamp"
	TrackSourceHTTP       TrackSource = "http"
	TrackSourceSpeech     TrackSource = "speech"
	TrackSourceOther      TrackSource = "other"
)

// ParseTrackSource converts an extractor or source name to a TrackSource.
func ParseTrackSource(name string) TrackSource {
	switch name {
	case "youtube", "Youtube", "youtube:tab":
		return TrackSourceYouTube
	case "soundcloud", "Soundcloud":
		return TrackSourceSoundCloud
	case "twitch", "twitch:stream", "twitch:vod":
		return TrackSourceTwitch
	case "bandcamp", "Bandcamp":
		return TrackSourceBandcamp
	case "http", "generic":
		return TrackSourceHTTP
	case "speech":
		return TrackSourceSpeech
	default:
		return TrackSourceOther
	}
}

// Color returns the embed color associated with the source.
func (s TrackSource) Color() int {
	switch s {
	case TrackSourceYouTube:
		return 0xFF0000
	case TrackSourceSoundCloud:
		return 0xFF5500
	case TrackSourceTwitch:
		return 0x9146FF
	case TrackSourceBandcamp:
		return 0x1DA0C3
	default:
		return 0x08C404
	}
}
