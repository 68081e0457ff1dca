package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
)

// Protocol names reported for Lavalink tracks.
const (
	lavalinkProtocolHTTP   = "https"
	lavalinkProtocolStream = "m3u8"
)

// LavalinkResolver resolves queries through the Lavalink node's loadtracks API.
type LavalinkResolver struct {
	adapter *LavalinkAdapter
}

// NewLavalinkResolver creates a new LavalinkResolver.
func NewLavalinkResolver(adapter *LavalinkAdapter) *LavalinkResolver {
	return &LavalinkResolver{adapter: adapter}
}

// Resolve loads query. Plain text is searched on YouTube and yields the best
// match; playlists yield every entry.
func (r *LavalinkResolver) Resolve(ctx context.Context, query string) ([]*ports.ResolvedMedia, error) {
	result, err := r.adapter.loadTracks(ctx, lavalinkIdentifier(query))
	if err != nil {
		return nil, err
	}
	return convertLoadResult(result)
}

// lavalinkIdentifier prefixes non-URL queries with the YouTube search prefix.
func lavalinkIdentifier(query string) string {
	if isURL(query) {
		return query
	}
	return "ytsearch:" + query
}

// isURL reports whether s is an absolute http(s) URL.
func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// convertLoadResult converts a Lavalink load result to resolved media.
func convertLoadResult(result *lavalink.LoadResult) ([]*ports.ResolvedMedia, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return []*ports.ResolvedMedia{convertTrack(data)}, nil

	case lavalink.Playlist:
		media := make([]*ports.ResolvedMedia, len(data.Tracks))
		for i, track := range data.Tracks {
			media[i] = convertTrack(track)
		}
		return media, nil

	case lavalink.Search:
		if len(data) == 0 {
			return nil, nil
		}
		return []*ports.ResolvedMedia{convertTrack(data[0])}, nil

	case lavalink.Exception:
		return nil, fmt.Errorf("lavalink failed to load: %s", data.Message)

	default:
		return nil, nil
	}
}

// convertTrack converts a Lavalink track to resolved media. The track's
// encoded data doubles as its only stream endpoint.
func convertTrack(track lavalink.Track) *ports.ResolvedMedia {
	info := track.Info

	protocol := lavalinkProtocolHTTP
	if info.IsStream {
		protocol = lavalinkProtocolStream
	}

	duration := time.Duration(info.Length) * time.Millisecond
	if info.IsStream {
		duration = 0
	}

	return &ports.ResolvedMedia{
		Title:      info.Title,
		Artist:     info.Author,
		Reference:  derefString(info.URI),
		Duration:   duration,
		IsLive:     info.IsStream,
		SourceName: info.SourceName,
		SourceID:   info.Identifier,
		ArtworkURL: derefString(info.ArtworkURL),
		Endpoints: []ports.StreamEndpoint{{
			URL:      derefString(info.URI),
			Protocol: protocol,
			Encoded:  track.Encoded,
		}},
	}
}

// firstTrack returns the first playable track of a load result.
func firstTrack(result *lavalink.LoadResult) (lavalink.Track, bool) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, true
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			return data.Tracks[0], true
		}
	case lavalink.Search:
		if len(data) > 0 {
			return data[0], true
		}
	}
	return lavalink.Track{}, false
}

// loadFailure describes why a load result has no track.
func loadFailure(result *lavalink.LoadResult) string {
	if exception, ok := result.Data.(lavalink.Exception); ok {
		return exception.Message
	}
	return "no matches"
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ensure LavalinkResolver implements ports.MediaResolver.
var _ ports.MediaResolver = (*LavalinkResolver)(nil)
