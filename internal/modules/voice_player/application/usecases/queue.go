package usecases

import (
	"context"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

// QueueListLimit is the number of entries shown by List.
const QueueListLimit = 10

// PlayInput contains the input for the Play use case.
type PlayInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	Query                 string
}

// PlayOutput contains the result of the Play use case.
type PlayOutput struct {
	Enqueued []*domain.Track
	// Started is the track that began playing because the guild was idle.
	Started *domain.Track
	// QueueLength is the queue length after enqueueing.
	QueueLength int
}

// QueueListOutput contains the result of the List use case.
type QueueListOutput struct {
	Tracks []*domain.Track // at most QueueListLimit entries
	Total  int
}

// QueueRemoveInput contains the input for the Remove use case.
type QueueRemoveInput struct {
	GuildID  snowflake.ID
	Position int // 1-based
}

// QueueService handles queue operations.
type QueueService struct {
	engine  *PlaybackEngine
	repo    domain.PlayerStateRepository
	shuffle func(n int, swap func(i, j int))
}

// NewQueueService creates a new QueueService. A nil shuffle uses math/rand.
func NewQueueService(engine *PlaybackEngine, shuffle func(n int, swap func(i, j int))) *QueueService {
	return &QueueService{
		engine:  engine,
		repo:    engine.repo,
		shuffle: shuffle,
	}
}

// Play resolves a query, enqueues the results and starts playback when
// the guild is idle.
func (q *QueueService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	state := q.repo.GetOrCreate(input.GuildID)
	state.SetNotificationChannelID(input.NotificationChannelID)

	if err := q.engine.ensureConnected(ctx, state, input.UserID); err != nil {
		return nil, err
	}

	media, err := q.engine.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	now := q.engine.clock.Now()
	tracks := make([]*domain.Track, 0, len(media))
	for _, m := range media {
		track := TrackFromMedia(query, m)
		track.RequesterID = input.UserID
		track.EnqueuedAt = now
		tracks = append(tracks, track)
	}

	length := state.Enqueue(tracks...)
	started := q.engine.StartIfIdle(ctx, state)

	return &PlayOutput{
		Enqueued:    tracks,
		Started:     started,
		QueueLength: length,
	}, nil
}

// List returns the first QueueListLimit queued tracks and the total.
func (q *QueueService) List(guildID snowflake.ID) (*QueueListOutput, error) {
	state := q.repo.Get(guildID)
	if state == nil {
		return nil, ErrQueueEmpty
	}

	tracks := state.QueueList()
	if len(tracks) == 0 {
		return nil, ErrQueueEmpty
	}

	total := len(tracks)
	if total > QueueListLimit {
		tracks = tracks[:QueueListLimit]
	}
	return &QueueListOutput{Tracks: tracks, Total: total}, nil
}

// Remove removes the track at a 1-based queue position.
func (q *QueueService) Remove(input QueueRemoveInput) (*domain.Track, error) {
	state := q.repo.Get(input.GuildID)
	if state == nil || state.QueueLen() == 0 {
		return nil, ErrQueueEmpty
	}
	return state.RemoveAt(input.Position)
}

// Clear empties the queue and returns the number of removed tracks.
func (q *QueueService) Clear(guildID snowflake.ID) (int, error) {
	state := q.repo.Get(guildID)
	if state == nil {
		return 0, ErrQueueEmpty
	}
	n := state.ClearQueue()
	if n == 0 {
		return 0, ErrQueueEmpty
	}
	return n, nil
}

// Shuffle randomizes the queue order. It needs at least two tracks.
func (q *QueueService) Shuffle(guildID snowflake.ID) (int, error) {
	state := q.repo.Get(guildID)
	if state == nil {
		return 0, ErrNotEnoughToShuffle
	}
	n := state.ShuffleQueue(q.shuffle)
	if n < 2 {
		return 0, ErrNotEnoughToShuffle
	}
	return n, nil
}

// Tracks returns every queued track, for autocompletion.
func (q *QueueService) Tracks(guildID snowflake.ID) []*domain.Track {
	state := q.repo.Get(guildID)
	if state == nil {
		return nil
	}
	return state.QueueList()
}
