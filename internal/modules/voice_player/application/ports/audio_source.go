package ports

import (
	"context"
	"time"
)

// AudioSource is a stream prepared for the voice transport.
type AudioSource struct {
	Encoded string // transport-native track data
	URL     string
	Offset  time.Duration
}

// AudioSourceFactory prepares stream endpoints for playback.
type AudioSourceFactory interface {
	// Open prepares endpoint for playback starting at offset.
	Open(ctx context.Context, endpoint StreamEndpoint, offset time.Duration) (*AudioSource, error)
}
