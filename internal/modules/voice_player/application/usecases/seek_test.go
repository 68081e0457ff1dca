package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sglre6355/voicebot/internal/modules/voice_player/domain"
)

func seekInput(position string) SeekInput {
	return SeekInput{
		GuildID:               testGuildID,
		UserID:                testUserID,
		NotificationChannelID: testTextChannelID,
		Position:              position,
	}
}

func TestSeek_Targets(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		elapsed  time.Duration
		position string
		expected time.Duration
	}{
		{"absolute", 200 * time.Second, 10 * time.Second, "90", 90 * time.Second},
		{"clamps past end", 100 * time.Second, 10 * time.Second, "150", 99750 * time.Millisecond},
		{"clamps before start", 100 * time.Second, 10 * time.Second, "-50", 0},
		{"relative forward", 100 * time.Second, 30 * time.Second, "+10", 40 * time.Second},
		{"percent", 200 * time.Second, 10 * time.Second, "50%", 100 * time.Second},
		{"clock format", 200 * time.Second, 0, "1:30", 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.resolver.add("a", testMedia("a", "A", tt.duration, "https"))
			env.play(t, "a")
			env.clock.Advance(tt.elapsed)

			out, err := NewSeekService(env.engine).Seek(context.Background(), seekInput(tt.position))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.AlreadyNear {
				t.Fatal("expected a real seek")
			}
			if out.Target != tt.expected {
				t.Errorf("expected target %v, got %v", tt.expected, out.Target)
			}
			if got := env.sources.last().offset; got != tt.expected {
				t.Errorf("expected source opened at %v, got %v", tt.expected, got)
			}
			meta := env.state().Playback()
			if meta.SeekBase != tt.expected || !meta.StartedAt.Equal(env.clock.Now()) {
				t.Errorf("expected anchors reset to %v, got %+v", tt.expected, meta)
			}
		})
	}
}

func TestSeek_DoesNotAdvanceQueue(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.add("a", testMedia("a", "A", 200*time.Second, "https"))
	env.resolver.add("b", testMedia("b", "B", 200*time.Second, "https"))
	env.play(t, "a")
	env.play(t, "b")

	if _, err := NewSeekService(env.engine).Seek(context.Background(), seekInput("60")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if env.state().QueueLen() != 1 {
		t.Errorf("expected B to stay queued, got length %d", env.state().QueueLen())
	}
	if meta := env.state().Playback(); meta.Title != "A" {
		t.Errorf("expected A to keep playing, got %q", meta.Title)
	}
}

func TestSeek_ResumedPlaybackAdvancesOnEnd(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.add("a", testMedia("a", "A", 200*time.Second, "https"))
	env.resolver.add("b", testMedia("b", "B", 200*time.Second, "https"))
	env.play(t, "a")
	env.play(t, "b")

	if _, err := NewSeekService(env.engine).Seek(context.Background(), seekInput("190")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env.transport.finish(testGuildID, nil)

	eventually(t, func() bool {
		meta := env.state().Playback()
		return meta != nil && meta.Title == "B"
	}, "B playing after seeked A ended")
}

func TestSeek_NearPositionIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.add("a", testMedia("a", "A", 200*time.Second, "https"))
	env.play(t, "a")
	env.clock.Advance(39900 * time.Millisecond)

	out, err := NewSeekService(env.engine).Seek(context.Background(), seekInput("40"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.AlreadyNear {
		t.Error("expected AlreadyNear")
	}
	if env.transport.stopCount() != 0 || len(env.transport.playedURLs()) != 1 {
		t.Error("expected no transport action")
	}
}

func TestSeek_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		media    *testMediaSpec
		position string
		expected error
	}{
		{"nothing loaded", nil, "10", ErrNothingToSeek},
		{"segmented source", &testMediaSpec{200 * time.Second, "m3u8_native", false}, "10", ErrNotSeekable},
		{"live source", &testMediaSpec{0, "https", true}, "10", ErrNotSeekable},
		{"unknown duration percent", &testMediaSpec{0, "https", false}, "50%", domain.ErrDurationUnknown},
		{"percent out of range", &testMediaSpec{200 * time.Second, "https", false}, "150%", domain.ErrPercentOutOfRange},
		{"bad format", &testMediaSpec{200 * time.Second, "https", false}, "soon", domain.ErrInvalidTimeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.media != nil {
				m := testMedia("a", "A", tt.media.duration, tt.media.protocol)
				m.IsLive = tt.media.live
				env.resolver.add("a", m)
				env.play(t, "a")
			} else {
				env.repo.GetOrCreate(testGuildID)
			}

			_, err := NewSeekService(env.engine).Seek(context.Background(), seekInput(tt.position))
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
			if env.transport.stopCount() != 0 {
				t.Error("expected no transport action")
			}
		})
	}
}

type testMediaSpec struct {
	duration time.Duration
	protocol string
	live     bool
}
