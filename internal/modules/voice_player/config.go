package voice_player

import (
	"fmt"
	"time"
)

// Resolver backends.
const (
	ResolverYtdlp    = "ytdlp"
	ResolverLavalink = "lavalink"
)

// Config holds the voice player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	Resolver     string  `env:"RESOLVER" envDefault:"ytdlp"`
	YtdlpProxy   string  `env:"YTDLP_PROXY"`
	ResolveRate  float64 `env:"RESOLVE_RATE" envDefault:"2"`
	ResolveBurst int     `env:"RESOLVE_BURST" envDefault:"4"`

	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"30s"`
	VoiceTimeout   time.Duration `env:"VOICE_TIMEOUT" envDefault:"10s"`

	TTSBaseURL string `env:"TTS_BASE_URL" envDefault:"https://tetyys.com/SAPI4/SAPI4"`
	TTSVoice   string `env:"TTS_VOICE" envDefault:"Sam"`
	TTSPitch   int    `env:"TTS_PITCH" envDefault:"140"`
	TTSSpeed   int    `env:"TTS_SPEED" envDefault:"157"`
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.Resolver {
	case ResolverYtdlp, ResolverLavalink:
	default:
		return fmt.Errorf("unknown RESOLVER %q, want %q or %q", c.Resolver, ResolverYtdlp, ResolverLavalink)
	}
	if c.ResolveRate <= 0 || c.ResolveBurst <= 0 {
		return fmt.Errorf("RESOLVE_RATE and RESOLVE_BURST must be positive")
	}
	if c.ResolveTimeout <= 0 || c.VoiceTimeout <= 0 {
		return fmt.Errorf("RESOLVE_TIMEOUT and VOICE_TIMEOUT must be positive")
	}
	return nil
}
