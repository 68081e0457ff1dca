package infrastructure

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
)

// SAPI4Config configures the SAPI4 text-to-speech web service.
type SAPI4Config struct {
	BaseURL string
	Voice   string
	Pitch   int
	Speed   int
}

// DefaultSAPI4Config returns the public tetyys.com endpoint with Microsoft Sam.
func DefaultSAPI4Config() SAPI4Config {
	return SAPI4Config{
		BaseURL: "https://tetyys.com/SAPI4/SAPI4",
		Voice:   "Sam",
		Pitch:   140,
		Speed:   157,
	}
}

// SAPI4Synthesizer builds speech stream URLs for a SAPI4 web service.
type SAPI4Synthesizer struct {
	config SAPI4Config
}

// NewSAPI4Synthesizer creates a new SAPI4Synthesizer.
func NewSAPI4Synthesizer(config SAPI4Config) *SAPI4Synthesizer {
	return &SAPI4Synthesizer{config: config}
}

// Endpoint returns a WAV stream speaking text.
func (s *SAPI4Synthesizer) Endpoint(text string) (ports.StreamEndpoint, error) {
	base, err := url.Parse(s.config.BaseURL)
	if err != nil {
		return ports.StreamEndpoint{}, fmt.Errorf("invalid TTS base URL: %w", err)
	}

	query := url.Values{}
	query.Set("text", text)
	query.Set("voice", s.config.Voice)
	query.Set("pitch", strconv.Itoa(s.config.Pitch))
	query.Set("speed", strconv.Itoa(s.config.Speed))
	base.RawQuery = query.Encode()

	return ports.StreamEndpoint{
		URL:      base.String(),
		Protocol: base.Scheme,
	}, nil
}

// Ensure SAPI4Synthesizer implements ports.SpeechSynthesizer.
var _ ports.SpeechSynthesizer = (*SAPI4Synthesizer)(nil)
