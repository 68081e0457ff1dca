package discord

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/usecases"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

const (
	testGuild   = "1"
	testUser    = "10"
	testChannel = "200"
)

type stubRepository struct {
	mu     sync.Mutex
	states map[snowflake.ID]*domain.PlayerState
}

func (r *stubRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[guildID]
}

func (r *stubRepository) GetOrCreate(guildID snowflake.ID) *domain.PlayerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[guildID]
	if !ok {
		state = domain.NewPlayerState(guildID)
		r.states[guildID] = state
	}
	return state
}

func (r *stubRepository) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, guildID)
}

type stubResolver struct {
	media map[string][]*ports.ResolvedMedia
}

func (r *stubResolver) Resolve(_ context.Context, query string) ([]*ports.ResolvedMedia, error) {
	return r.media[query], nil
}

type stubSources struct{}

func (stubSources) Open(
	_ context.Context,
	endpoint ports.StreamEndpoint,
	offset time.Duration,
) (*ports.AudioSource, error) {
	return &ports.AudioSource{URL: endpoint.URL, Offset: offset}, nil
}

type stubPlayback struct {
	id   string
	done chan error
}

func (p *stubPlayback) ID() string         { return p.id }
func (p *stubPlayback) Done() <-chan error { return p.done }

type stubTransport struct {
	mu        sync.Mutex
	connected map[snowflake.ID]bool
	playing   map[snowflake.ID]bool
	paused    map[snowflake.ID]bool
	plays     int
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		connected: make(map[snowflake.ID]bool),
		playing:   make(map[snowflake.ID]bool),
		paused:    make(map[snowflake.ID]bool),
	}
}

func (t *stubTransport) Join(_ context.Context, guildID, _ snowflake.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected[guildID] = true
	return nil
}

func (t *stubTransport) Leave(_ context.Context, guildID snowflake.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.connected, guildID)
	delete(t.playing, guildID)
	delete(t.paused, guildID)
	return nil
}

func (t *stubTransport) Play(
	_ context.Context,
	guildID snowflake.ID,
	_ *ports.AudioSource,
) (ports.Playback, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plays++
	t.playing[guildID] = true
	t.paused[guildID] = false
	return &stubPlayback{id: fmt.Sprintf("pb-%d", t.plays), done: make(chan error, 1)}, nil
}

func (t *stubTransport) Stop(_ context.Context, guildID snowflake.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing[guildID] = false
	t.paused[guildID] = false
	return nil
}

func (t *stubTransport) Pause(_ context.Context, guildID snowflake.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing[guildID] = false
	t.paused[guildID] = true
	return nil
}

func (t *stubTransport) Resume(_ context.Context, guildID snowflake.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing[guildID] = true
	t.paused[guildID] = false
	return nil
}

func (t *stubTransport) IsConnected(guildID snowflake.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected[guildID]
}

func (t *stubTransport) IsPlaying(guildID snowflake.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing[guildID]
}

func (t *stubTransport) IsPaused(guildID snowflake.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused[guildID]
}

type stubVoiceState struct {
	channelID snowflake.ID
}

func (v stubVoiceState) GetUserVoiceChannel(_, _ snowflake.ID) (snowflake.ID, error) {
	return v.channelID, nil
}

type stubNotifier struct{}

func (stubNotifier) SendNowPlaying(snowflake.ID, *ports.NowPlayingInfo) error { return nil }
func (stubNotifier) SendInfo(snowflake.ID, string) error                      { return nil }
func (stubNotifier) SendError(snowflake.ID, string) error                     { return nil }
func (stubNotifier) DefaultChannel(snowflake.ID) (snowflake.ID, error)        { return 0, nil }

type stubSynthesizer struct{}

func (stubSynthesizer) Endpoint(text string) (ports.StreamEndpoint, error) {
	return ports.StreamEndpoint{URL: "speech://" + text, Protocol: "https"}, nil
}

type handlerEnv struct {
	handlers  *CommandHandlers
	transport *stubTransport
	resolver  *stubResolver
}

func newHandlerEnv(t *testing.T, userChannel snowflake.ID) *handlerEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	transport := newStubTransport()
	resolver := &stubResolver{media: make(map[string][]*ports.ResolvedMedia)}
	engine := usecases.NewPlaybackEngine(
		ctx,
		&stubRepository{states: make(map[snowflake.ID]*domain.PlayerState)},
		resolver,
		stubSources{},
		transport,
		stubVoiceState{channelID: userChannel},
		stubNotifier{},
		nil,
		usecases.DefaultEngineConfig(),
	)
	t.Cleanup(func() {
		cancel()
		engine.Wait()
	})

	return &handlerEnv{
		handlers: NewCommandHandlers(
			usecases.NewVoiceChannelService(engine),
			usecases.NewPlaybackService(engine),
			usecases.NewQueueService(engine, nil),
			usecases.NewSeekService(engine),
			usecases.NewSpeechService(engine, stubSynthesizer{}),
		),
		transport: transport,
		resolver:  resolver,
	}
}

func (e *handlerEnv) addMedia(query, title string, duration time.Duration) {
	e.resolver.media[query] = []*ports.ResolvedMedia{{
		Title:      title,
		Reference:  "https://example.com/" + query,
		Duration:   duration,
		SourceName: "youtube",
		Endpoints:  []ports.StreamEndpoint{{URL: "stream://" + query, Protocol: "https"}},
	}}
}

func commandInteraction(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuild,
			ChannelID: testChannel,
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUser}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionMessageComponent,
			GuildID:   testGuild,
			ChannelID: testChannel,
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUser}},
			Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
		},
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}
