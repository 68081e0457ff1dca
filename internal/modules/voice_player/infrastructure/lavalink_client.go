package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
)

// ErrNoLavalinkNode is returned when no Lavalink node is available.
var ErrNoLavalinkNode = errors.New("no available Lavalink node")

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds voice events until both VoiceStateUpdate and
// VoiceServerUpdate have arrived, so Lavalink never sees a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// drain returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) drain() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint
	*b = voiceEventBuffer{}
	return
}

// lavalinkPlayback is the handle of one track started on a Lavalink player.
type lavalinkPlayback struct {
	id      string
	encoded string
	done    chan error
	once    sync.Once

	mu  sync.Mutex
	err error // last exception reported for the track
}

func newLavalinkPlayback(encoded string) *lavalinkPlayback {
	return &lavalinkPlayback{
		id:      uuid.NewString(),
		encoded: encoded,
		done:    make(chan error, 1),
	}
}

func (p *lavalinkPlayback) ID() string         { return p.id }
func (p *lavalinkPlayback) Done() <-chan error { return p.done }

func (p *lavalinkPlayback) setError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// finish resolves the playback with the recorded exception, if any.
func (p *lavalinkPlayback) finish() {
	p.mu.Lock()
	err := p.err
	p.mu.Unlock()
	p.resolve(err)
}

func (p *lavalinkPlayback) resolve(err error) {
	p.once.Do(func() {
		p.done <- err
	})
}

// guildPlayer is the transport-side view of one guild's player.
type guildPlayer struct {
	channelID snowflake.ID
	current   *lavalinkPlayback
	paused    bool
}

// LavalinkAdapter wraps DisGoLink to implement VoiceTransport and
// AudioSourceFactory.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	voiceTimeout time.Duration

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	mu      sync.Mutex
	players map[snowflake.ID]*guildPlayer

	onDisconnect func(guildID snowflake.ID)
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address      string
	Password     string
	Secure       bool
	VoiceTimeout time.Duration
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		voiceTimeout: config.VoiceTimeout,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		players:      make(map[snowflake.ID]*guildPlayer),
	}
	if adapter.voiceTimeout <= 0 {
		adapter.voiceTimeout = 10 * time.Second
	}

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)

	node, err := adapter.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// SetDisconnectHandler registers a callback for voice disconnects the bot
// did not request, e.g. being kicked from the channel.
func (c *LavalinkAdapter) SetDisconnectHandler(handler func(guildID snowflake.ID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = handler
}

// Close disconnects from all Lavalink nodes.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// Join connects to a voice channel, moving if already connected.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) Join(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		c.mu.Lock()
		c.player(guildID).channelID = channelID
		c.mu.Unlock()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(c.voiceTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// Leave disconnects from the voice channel and resolves the current playback.
func (c *LavalinkAdapter) Leave(ctx context.Context, guildID snowflake.ID) error {
	c.mu.Lock()
	gp := c.players[guildID]
	delete(c.players, guildID)
	c.mu.Unlock()

	if gp != nil && gp.current != nil {
		gp.current.resolve(nil)
	}

	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Play starts source on the guild's player, replacing the current track.
func (c *LavalinkAdapter) Play(
	ctx context.Context,
	guildID snowflake.ID,
	source *ports.AudioSource,
) (ports.Playback, error) {
	if source == nil || source.Encoded == "" {
		return nil, errors.New("audio source has no encoded track")
	}

	playback := newLavalinkPlayback(source.Encoded)

	c.mu.Lock()
	gp := c.player(guildID)
	prev := gp.current
	gp.current = playback
	gp.paused = false
	c.mu.Unlock()

	if prev != nil {
		prev.resolve(nil)
	}

	opts := []lavalink.PlayerUpdateOpt{
		lavalink.WithEncodedTrack(source.Encoded),
		lavalink.WithPaused(false),
	}
	if source.Offset > 0 {
		opts = append(opts, lavalink.WithPosition(lavalink.Duration(source.Offset.Milliseconds())))
	}

	if err := c.link.Player(guildID).Update(ctx, opts...); err != nil {
		c.mu.Lock()
		if gp := c.players[guildID]; gp != nil && gp.current == playback {
			gp.current = nil
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to play track: %w", err)
	}

	return playback, nil
}

// Stop stops the current playback. Its handle resolves immediately.
func (c *LavalinkAdapter) Stop(ctx context.Context, guildID snowflake.ID) error {
	c.mu.Lock()
	var current *lavalinkPlayback
	if gp := c.players[guildID]; gp != nil {
		current = gp.current
		gp.current = nil
		gp.paused = false
	}
	c.mu.Unlock()

	if current != nil {
		current.resolve(nil)
	}

	if err := c.link.Player(guildID).Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// Pause pauses the current playback.
func (c *LavalinkAdapter) Pause(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	c.setPaused(guildID, true)
	return nil
}

// Resume resumes the current playback.
func (c *LavalinkAdapter) Resume(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	c.setPaused(guildID, false)
	return nil
}

func (c *LavalinkAdapter) setPaused(guildID snowflake.ID, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gp := c.players[guildID]; gp != nil && gp.current != nil {
		gp.paused = paused
	}
}

// IsConnected reports whether the bot is in a voice channel in the guild.
func (c *LavalinkAdapter) IsConnected(guildID snowflake.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	gp := c.players[guildID]
	return gp != nil && gp.channelID != 0
}

// IsPlaying reports whether a track is playing and not paused.
func (c *LavalinkAdapter) IsPlaying(guildID snowflake.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	gp := c.players[guildID]
	return gp != nil && gp.current != nil && !gp.paused
}

// IsPaused reports whether a track is loaded and paused.
func (c *LavalinkAdapter) IsPaused(guildID snowflake.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	gp := c.players[guildID]
	return gp != nil && gp.current != nil && gp.paused
}

// player returns the guild's player entry, creating it. c.mu must be held.
func (c *LavalinkAdapter) player(guildID snowflake.ID) *guildPlayer {
	gp, ok := c.players[guildID]
	if !ok {
		gp = &guildPlayer{}
		c.players[guildID] = gp
	}
	return gp
}

// Open prepares endpoint as a Lavalink track. Endpoints that already carry
// encoded track data are used as is; anything else is loaded from its URL
// through the node's HTTP source.
func (c *LavalinkAdapter) Open(
	ctx context.Context,
	endpoint ports.StreamEndpoint,
	offset time.Duration,
) (*ports.AudioSource, error) {
	encoded := endpoint.Encoded
	if encoded == "" {
		result, err := c.loadTracks(ctx, endpoint.URL)
		if err != nil {
			return nil, err
		}
		track, ok := firstTrack(result)
		if !ok {
			return nil, fmt.Errorf("failed to load stream %q: %s", endpoint.URL, loadFailure(result))
		}
		encoded = track.Encoded
	}

	return &ports.AudioSource{
		Encoded: encoded,
		URL:     endpoint.URL,
		Offset:  offset,
	}, nil
}

// loadTracks runs a loadtracks request on the best node.
func (c *LavalinkAdapter) loadTracks(ctx context.Context, identifier string) (*lavalink.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, ErrNoLavalinkNode
	}

	result, err := node.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return result, nil
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.clearVoiceBuffer(guildID)
		c.handleDisconnect(guildID)
		return
	}

	c.mu.Lock()
	if gp := c.players[guildID]; gp != nil && gp.channelID != 0 {
		gp.channelID = *channelID
	}
	c.mu.Unlock()

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceState(channelID, event.SessionID) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(true)
	}
}

// handleDisconnect drops the guild's player after a disconnect. Disconnects
// requested through Leave have already removed it.
func (c *LavalinkAdapter) handleDisconnect(guildID snowflake.ID) {
	c.mu.Lock()
	gp, ok := c.players[guildID]
	delete(c.players, guildID)
	handler := c.onDisconnect
	c.mu.Unlock()

	if !ok {
		return
	}
	if gp.current != nil {
		gp.current.resolve(nil)
	}

	slog.Info("disconnected from voice", "guild", guildID)
	if handler != nil {
		handler(guildID)
	}
}

// getOrCreateVoiceBuffer returns the voice buffer for a guild, creating one if needed.
func (c *LavalinkAdapter) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

// clearVoiceBuffer removes the voice buffer for a guild.
func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink.
func (c *LavalinkAdapter) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.drain()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

// currentFor returns the guild's current playback if it is playing encoded.
func (c *LavalinkAdapter) currentFor(guildID snowflake.ID, encoded string) *lavalinkPlayback {
	c.mu.Lock()
	defer c.mu.Unlock()
	gp := c.players[guildID]
	if gp == nil || gp.current == nil || gp.current.encoded != encoded {
		return nil
	}
	return gp.current
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	guildID := player.GuildID()
	slog.Debug("track ended", "guild", guildID, "reason", event.Reason)

	// Stopped and Replaced are requested through Stop and Play, which
	// resolve the handle themselves.
	switch event.Reason {
	case lavalink.TrackEndReasonFinished,
		lavalink.TrackEndReasonLoadFailed,
		lavalink.TrackEndReasonCleanup:
	default:
		return
	}

	c.mu.Lock()
	gp := c.players[guildID]
	var current *lavalinkPlayback
	if gp != nil && gp.current != nil && gp.current.encoded == event.Track.Encoded {
		current = gp.current
		gp.current = nil
		gp.paused = false
	}
	c.mu.Unlock()

	if current == nil {
		return
	}
	if event.Reason == lavalink.TrackEndReasonLoadFailed {
		current.mu.Lock()
		if current.err == nil {
			current.err = errors.New("track failed to load")
		}
		current.mu.Unlock()
	}
	current.finish()
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)

	if current := c.currentFor(player.GuildID(), event.Track.Encoded); current != nil {
		current.setError(errors.New(event.Exception.Message))
	}
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.VoiceTransport     = (*LavalinkAdapter)(nil)
	_ ports.AudioSourceFactory = (*LavalinkAdapter)(nil)
)
