package voice_player

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/voicebot/internal/bot"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/usecases"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/infrastructure"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/presentation/discord"
)

func init() {
	bot.Register(&VoicePlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*VoicePlayerModule)(nil)

// VoicePlayerModule provides playback, queue, seek and speech commands.
type VoicePlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	lavalinkAdapter *infrastructure.LavalinkAdapter
	engine          *usecases.PlaybackEngine

	// ctx bounds playback watchers and queue advances.
	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *VoicePlayerModule) Name() string {
	return "voice_player"
}

// Commands returns the slash commands for this module.
func (m *VoicePlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *VoicePlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	h := m.commandHandlers
	return map[string]bot.InteractionHandler{
		"join":       h.HandleJoin,
		"leave":      h.HandleLeave,
		"play":       h.HandlePlay,
		"queue":      h.HandleQueue,
		"skip":       h.HandleSkip,
		"clear":      h.HandleClear,
		"remove":     h.HandleRemove,
		"shuffle":    h.HandleShuffle,
		"pause":      h.HandlePause,
		"resume":     h.HandleResume,
		"stop":       h.HandleStop,
		"seek":       h.HandleSeek,
		"scrub":      h.HandleSeek,
		"jump":       h.HandleSeek,
		"say":        h.HandleSay,
		"nowplaying": h.HandleNowPlaying,
		"musicpanel": h.HandleMusicPanel,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *VoicePlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *VoicePlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *VoicePlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("voice_player requires a Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}
	cfg := m.config

	m.ctx, m.cancel = context.WithCancel(context.Background())

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(m.ctx, deps.Session, infrastructure.LavalinkConfig{
		Address:      cfg.LavalinkAddress,
		Password:     cfg.LavalinkPassword,
		Secure:       cfg.LavalinkSecure,
		VoiceTimeout: cfg.VoiceTimeout,
	})
	if err != nil {
		m.cancel()
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	var resolver ports.MediaResolver
	switch cfg.Resolver {
	case ResolverLavalink:
		resolver = infrastructure.NewLavalinkResolver(lavalinkAdapter)
	default:
		resolver = infrastructure.NewYtdlpResolver(cfg.YtdlpProxy)
	}
	resolver = infrastructure.NewRateLimitedResolver(resolver, cfg.ResolveRate, cfg.ResolveBurst)

	repo := infrastructure.NewMemoryRepository()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)
	synthesizer := infrastructure.NewSAPI4Synthesizer(infrastructure.SAPI4Config{
		BaseURL: cfg.TTSBaseURL,
		Voice:   cfg.TTSVoice,
		Pitch:   cfg.TTSPitch,
		Speed:   cfg.TTSSpeed,
	})

	m.engine = usecases.NewPlaybackEngine(
		m.ctx,
		repo,
		resolver,
		lavalinkAdapter,
		lavalinkAdapter,
		voiceState,
		notifier,
		nil,
		usecases.EngineConfig{
			ResolveTimeout: cfg.ResolveTimeout,
			VoiceTimeout:   cfg.VoiceTimeout,
		},
	)

	voiceChannel := usecases.NewVoiceChannelService(m.engine)
	playback := usecases.NewPlaybackService(m.engine)
	queue := usecases.NewQueueService(m.engine, nil)
	seek := usecases.NewSeekService(m.engine)
	speech := usecases.NewSpeechService(m.engine, synthesizer)

	lavalinkAdapter.SetDisconnectHandler(voiceChannel.HandleBotDisconnected)

	m.commandHandlers = discord.NewCommandHandlers(voiceChannel, playback, queue, seek, speech)
	m.autocomplete = discord.NewAutocompleteHandler(queue)

	slog.Info("voice_player module initialized",
		"resolver", cfg.Resolver,
		"lavalink", cfg.LavalinkAddress,
	)

	return nil
}

// Shutdown cleans up module resources.
func (m *VoicePlayerModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	if m.engine != nil {
		m.engine.Wait()
	}

	return nil
}

// Event handlers.

func (m *VoicePlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *VoicePlayerModule) handleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
}

func (m *VoicePlayerModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		if m.autocomplete == nil {
			return
		}
		if i.ApplicationCommandData().Name == "remove" {
			m.autocomplete.HandleRemove(s, i)
		}

	case discordgo.InteractionMessageComponent:
		if m.commandHandlers == nil || !discord.IsControlComponent(i.MessageComponentData().CustomID) {
			return
		}
		responder := bot.NewDiscordResponder(s, i.Interaction)
		if err := m.commandHandlers.HandleComponent(s, i, responder); err != nil {
			slog.Error("failed to handle control panel button",
				"custom_id", i.MessageComponentData().CustomID,
				"error", err,
			)
		}
	}
}
