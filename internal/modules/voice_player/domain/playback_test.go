package domain

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return testEpoch.Add(time.Duration(seconds * float64(time.Second)))
}

func TestPlaybackMetadata_OffsetIsMonotonic(t *testing.T) {
	meta := &PlaybackMetadata{
		Duration:  200 * time.Second,
		StartedAt: at(0),
		SeekBase:  30 * time.Second,
	}

	var last time.Duration
	for i := range 50 {
		now := at(float64(i) * 0.7)
		offset := meta.Offset(now)
		if offset < last {
			t.Fatalf("offset decreased at step %d: %v < %v", i, offset, last)
		}
		last = offset
	}
}

func TestPlaybackMetadata_OffsetFrozenWhilePaused(t *testing.T) {
	meta := &PlaybackMetadata{
		Duration:  200 * time.Second,
		StartedAt: at(0),
	}
	meta.MarkPaused(at(12))

	if got := meta.Offset(at(12)); got != 12*time.Second {
		t.Errorf("expected 12s at pause, got %v", got)
	}
	if got := meta.Offset(at(90)); got != 12*time.Second {
		t.Errorf("expected offset to stay at 12s while paused, got %v", got)
	}
}

func TestPlaybackMetadata_PauseResumeRoundTrip(t *testing.T) {
	meta := &PlaybackMetadata{
		Duration:  200 * time.Second,
		StartedAt: at(0),
		SeekBase:  5 * time.Second,
	}

	meta.MarkPaused(at(20))
	atPause := meta.Offset(at(20))

	meta.MarkResumed(at(80))
	afterResume := meta.Offset(at(80))

	if !IsNear(atPause, afterResume) {
		t.Errorf("expected offset to survive pause/resume: %v vs %v", atPause, afterResume)
	}
	if meta.PausedAt != nil {
		t.Error("expected PausedAt to be cleared")
	}
	if meta.SeekBase != 25*time.Second {
		t.Errorf("expected SeekBase 25s, got %v", meta.SeekBase)
	}
	if got := meta.Offset(at(90)); got != 35*time.Second {
		t.Errorf("expected 35s ten seconds after resume, got %v", got)
	}
}

func TestPlaybackMetadata_MarkPausedKeepsFirstAnchor(t *testing.T) {
	meta := &PlaybackMetadata{StartedAt: at(0)}

	meta.MarkPaused(at(10))
	meta.MarkPaused(at(30))

	if got := meta.Offset(at(40)); got != 10*time.Second {
		t.Errorf("expected 10s, got %v", got)
	}
}

func TestPlaybackMetadata_MarkResumedWithoutPauseIsNoop(t *testing.T) {
	meta := &PlaybackMetadata{StartedAt: at(0), SeekBase: time.Second}

	meta.MarkResumed(at(10))

	if !meta.StartedAt.Equal(at(0)) || meta.SeekBase != time.Second {
		t.Error("expected anchors to be unchanged")
	}
}

func TestPlaybackMetadata_OffsetClampsToDuration(t *testing.T) {
	meta := &PlaybackMetadata{
		Duration:  100 * time.Second,
		StartedAt: at(0),
		SeekBase:  90 * time.Second,
	}

	if got := meta.Offset(at(60)); got != 99750*time.Millisecond {
		t.Errorf("expected clamp to 99.75s, got %v", got)
	}
}

func TestPlaybackMetadata_ClockBeforeStartIsZeroElapsed(t *testing.T) {
	meta := &PlaybackMetadata{StartedAt: at(10), SeekBase: 3 * time.Second}

	if got := meta.Offset(at(5)); got != 3*time.Second {
		t.Errorf("expected negative elapsed to be ignored, got %v", got)
	}
}

func TestPlaybackMetadata_StalledOffsetIsFrozen(t *testing.T) {
	meta := &PlaybackMetadata{
		StartedAt: at(0),
		SeekBase:  42 * time.Second,
		Stalled:   true,
	}

	if got := meta.Offset(at(100)); got != 42*time.Second {
		t.Errorf("expected stalled offset 42s, got %v", got)
	}
}

func TestPlaybackMetadata_Snapshot(t *testing.T) {
	t.Run("nil metadata", func(t *testing.T) {
		var meta *PlaybackMetadata
		if meta.Snapshot(at(0)) != nil {
			t.Error("expected nil snapshot")
		}
	})

	t.Run("not started", func(t *testing.T) {
		meta := &PlaybackMetadata{Reference: "https://example.com/a"}
		if meta.Snapshot(at(0)) != nil {
			t.Error("expected nil snapshot before start")
		}
	})

	t.Run("direct source", func(t *testing.T) {
		meta := &PlaybackMetadata{
			Reference: "https://example.com/a",
			Title:     "A",
			Duration:  200 * time.Second,
			StartedAt: at(0),
			SeekBase:  10 * time.Second,
			Protocol:  ProtocolDirect,
		}

		snap := meta.Snapshot(at(15))
		if snap == nil {
			t.Fatal("expected snapshot")
		}
		if snap.Offset != 25*time.Second {
			t.Errorf("expected offset 25s, got %v", snap.Offset)
		}
		if !snap.Resumable {
			t.Error("expected direct source to be resumable")
		}
		if snap.Reference != "https://example.com/a" || snap.Title != "A" {
			t.Errorf("unexpected snapshot identity: %+v", snap)
		}
	})

	t.Run("segmented source", func(t *testing.T) {
		meta := &PlaybackMetadata{StartedAt: at(0), Protocol: ProtocolSegmented}
		if meta.Snapshot(at(1)).Resumable {
			t.Error("expected segmented source to be non-resumable")
		}
	})

	t.Run("live source", func(t *testing.T) {
		meta := &PlaybackMetadata{StartedAt: at(0), IsLive: true}
		if meta.Snapshot(at(1)).Resumable {
			t.Error("expected live source to be non-resumable")
		}
	})
}

func TestPlaybackMetadata_CloneIsIndependent(t *testing.T) {
	meta := &PlaybackMetadata{StartedAt: at(0)}
	meta.MarkPaused(at(5))

	clone := meta.Clone()
	*clone.PausedAt = at(50)

	if !meta.PausedAt.Equal(at(5)) {
		t.Error("expected clone to not share the pause anchor")
	}
}
