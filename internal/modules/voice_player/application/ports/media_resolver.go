package ports

import (
	"context"
	"time"
)

// StreamEndpoint is a concrete audio URL for a resolved item.
// Endpoints expire and must never be reused across playbacks.
type StreamEndpoint struct {
	URL      string
	Protocol string  // resolver protocol name, e.g. "https", "m3u8_native"
	Bitrate  float64 // audio bitrate in kbps, zero when unknown
	Encoded  string  // transport-native track data, when the resolver already has it
}

// ResolvedMedia is one item returned by a MediaResolver.
type ResolvedMedia struct {
	Title      string
	Artist     string
	Reference  string        // stable page URL
	Duration   time.Duration // zero when unknown
	IsLive     bool
	SourceName string // extractor name, e.g. "youtube"
	SourceID   string
	ArtworkURL string
	Endpoints  []StreamEndpoint // ranked, best first
}

// BestEndpoint returns the highest ranked endpoint.
func (m *ResolvedMedia) BestEndpoint() (StreamEndpoint, bool) {
	if len(m.Endpoints) == 0 {
		return StreamEndpoint{}, false
	}
	return m.Endpoints[0], true
}

// MediaResolver turns a user query or URL into playable items.
type MediaResolver interface {
	// Resolve returns the items for query. A search yields its best match,
	// a playlist yields every entry. No match returns an empty slice.
	Resolve(ctx context.Context, query string) ([]*ResolvedMedia, error)
}
