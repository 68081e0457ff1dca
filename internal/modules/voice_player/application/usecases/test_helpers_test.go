package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

const (
	testGuildID        = snowflake.ID(1)
	testUserID         = snowflake.ID(10)
	testVoiceChannelID = snowflake.ID(100)
	testTextChannelID  = snowflake.ID(200)
	testDefaultChannel = snowflake.ID(500)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockRepository struct {
	mu     sync.Mutex
	states map[snowflake.ID]*domain.PlayerState
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		states: make(map[snowflake.ID]*domain.PlayerState),
	}
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[guildID]
}

func (m *mockRepository) GetOrCreate(guildID snowflake.ID) *domain.PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[guildID]
	if !ok {
		state = domain.NewPlayerState(guildID)
		m.states[guildID] = state
	}
	return state
}

func (m *mockRepository) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, guildID)
}

type mockResolver struct {
	mu    sync.Mutex
	media map[string][]*ports.ResolvedMedia
	errs  map[string]error
	block bool
	calls []string
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		media: make(map[string][]*ports.ResolvedMedia),
		errs:  make(map[string]error),
	}
}

func (m *mockResolver) add(query string, media ...*ports.ResolvedMedia) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[query] = media
}

func (m *mockResolver) fail(query string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[query] = err
}

func (m *mockResolver) heal(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errs, query)
}

func (m *mockResolver) Resolve(ctx context.Context, query string) ([]*ports.ResolvedMedia, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	block := m.block
	err := m.errs[query]
	media := m.media[query]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return media, nil
}

// testMedia builds a resolved item whose reference resolves to itself.
func testMedia(reference, title string, duration time.Duration, protocol string) *ports.ResolvedMedia {
	return &ports.ResolvedMedia{
		Title:      title,
		Reference:  reference,
		Duration:   duration,
		SourceName: "youtube",
		Endpoints: []ports.StreamEndpoint{
			{URL: "stream://" + reference, Protocol: protocol},
		},
	}
}

type openCall struct {
	url    string
	offset time.Duration
}

type mockSourceFactory struct {
	mu     sync.Mutex
	err    error
	opened []openCall
}

func (m *mockSourceFactory) Open(
	_ context.Context,
	endpoint ports.StreamEndpoint,
	offset time.Duration,
) (*ports.AudioSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.opened = append(m.opened, openCall{url: endpoint.URL, offset: offset})
	return &ports.AudioSource{URL: endpoint.URL, Offset: offset, Encoded: "enc:" + endpoint.URL}, nil
}

func (m *mockSourceFactory) last() openCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opened) == 0 {
		return openCall{}
	}
	return m.opened[len(m.opened)-1]
}

type mockPlayback struct {
	id   string
	done chan error
	once sync.Once
}

func newMockPlayback(id string) *mockPlayback {
	return &mockPlayback{id: id, done: make(chan error, 1)}
}

func (p *mockPlayback) ID() string         { return p.id }
func (p *mockPlayback) Done() <-chan error { return p.done }

func (p *mockPlayback) resolve(err error) {
	p.once.Do(func() { p.done <- err })
}

type mockTransport struct {
	mu        sync.Mutex
	connected map[snowflake.ID]snowflake.ID
	current   map[snowflake.ID]*mockPlayback
	paused    map[snowflake.ID]bool
	played    []*ports.AudioSource
	stops     int
	nextID    int

	joinErr  error
	playErr  error
	pauseErr error
	stopErr  error

	// finishImmediately ends matching playbacks as soon as they start.
	finishImmediately func(source *ports.AudioSource) bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		connected: make(map[snowflake.ID]snowflake.ID),
		current:   make(map[snowflake.ID]*mockPlayback),
		paused:    make(map[snowflake.ID]bool),
	}
}

func (m *mockTransport) Join(_ context.Context, guildID, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.connected[guildID] = channelID
	return nil
}

func (m *mockTransport) Leave(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pb := m.current[guildID]; pb != nil {
		pb.resolve(nil)
	}
	delete(m.current, guildID)
	delete(m.paused, guildID)
	delete(m.connected, guildID)
	return nil
}

func (m *mockTransport) Play(
	_ context.Context,
	guildID snowflake.ID,
	source *ports.AudioSource,
) (ports.Playback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return nil, m.playErr
	}

	if prev := m.current[guildID]; prev != nil {
		prev.resolve(nil)
	}

	m.nextID++
	pb := newMockPlayback(fmt.Sprintf("pb-%d", m.nextID))
	m.played = append(m.played, source)
	m.paused[guildID] = false

	if m.finishImmediately != nil && m.finishImmediately(source) {
		delete(m.current, guildID)
		pb.resolve(nil)
		return pb, nil
	}

	m.current[guildID] = pb
	return pb, nil
}

func (m *mockTransport) Stop(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.stopErr != nil {
		return m.stopErr
	}
	if pb := m.current[guildID]; pb != nil {
		pb.resolve(nil)
	}
	delete(m.current, guildID)
	m.paused[guildID] = false
	return nil
}

func (m *mockTransport) Pause(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	if m.current[guildID] == nil {
		return errors.New("no player")
	}
	m.paused[guildID] = true
	return nil
}

func (m *mockTransport) Resume(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused[guildID] = false
	return nil
}

func (m *mockTransport) IsConnected(guildID snowflake.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.connected[guildID]
	return ok
}

func (m *mockTransport) IsPlaying(guildID snowflake.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[guildID] != nil && !m.paused[guildID]
}

func (m *mockTransport) IsPaused(guildID snowflake.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current[guildID] != nil && m.paused[guildID]
}

// finish simulates the current stream reaching its end.
func (m *mockTransport) finish(guildID snowflake.ID, err error) {
	m.mu.Lock()
	pb := m.current[guildID]
	delete(m.current, guildID)
	m.paused[guildID] = false
	m.mu.Unlock()

	if pb != nil {
		pb.resolve(err)
	}
}

func (m *mockTransport) playedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	urls := make([]string, len(m.played))
	for i, src := range m.played {
		urls[i] = src.URL
	}
	return urls
}

func (m *mockTransport) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockNotifier struct {
	mu         sync.Mutex
	nowPlaying []string
	infos      []string
	errors     []string
	channels   []snowflake.ID
}

func (m *mockNotifier) SendNowPlaying(channelID snowflake.ID, info *ports.NowPlayingInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowPlaying = append(m.nowPlaying, info.Title)
	m.channels = append(m.channels, channelID)
	return nil
}

func (m *mockNotifier) SendInfo(channelID snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, message)
	return nil
}

func (m *mockNotifier) SendError(channelID snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
	return nil
}

func (m *mockNotifier) DefaultChannel(_ snowflake.ID) (snowflake.ID, error) {
	return testDefaultChannel, nil
}

func (m *mockNotifier) nowPlayingTitles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.nowPlaying...)
}

func (m *mockNotifier) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type mockSynthesizer struct {
	err error
}

func (m *mockSynthesizer) Endpoint(text string) (ports.StreamEndpoint, error) {
	if m.err != nil {
		return ports.StreamEndpoint{}, m.err
	}
	return ports.StreamEndpoint{URL: "speech://" + text, Protocol: "https"}, nil
}

type testEnv struct {
	engine     *PlaybackEngine
	repo       *mockRepository
	resolver   *mockResolver
	sources    *mockSourceFactory
	transport  *mockTransport
	voiceState *mockVoiceStateProvider
	notifier   *mockNotifier
	clock      *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	env := &testEnv{
		repo:      newMockRepository(),
		resolver:  newMockResolver(),
		sources:   &mockSourceFactory{},
		transport: newMockTransport(),
		voiceState: &mockVoiceStateProvider{
			channels: map[snowflake.ID]snowflake.ID{testUserID: testVoiceChannelID},
		},
		notifier: &mockNotifier{},
		clock:    newFakeClock(),
	}
	env.engine = NewPlaybackEngine(
		ctx,
		env.repo,
		env.resolver,
		env.sources,
		env.transport,
		env.voiceState,
		env.notifier,
		env.clock,
		EngineConfig{ResolveTimeout: time.Second, VoiceTimeout: time.Second},
	)

	t.Cleanup(func() {
		cancel()
		env.engine.Wait()
	})
	return env
}

// play enqueues reference through the queue service.
func (env *testEnv) play(t *testing.T, reference string) *PlayOutput {
	t.Helper()

	out, err := NewQueueService(env.engine, nil).Play(context.Background(), PlayInput{
		GuildID:               testGuildID,
		UserID:                testUserID,
		NotificationChannelID: testTextChannelID,
		Query:                 reference,
	})
	if err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	return out
}

func (env *testEnv) state() *domain.PlayerState {
	return env.repo.Get(testGuildID)
}

// eventually polls cond until it holds or a deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
