package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"drivesync/internal/catalog"
)

func TestMock_PlayPauseResume(t *testing.T) {
	ctx := context.Background()
	m := NewMock()

	if err := m.LoadAndPlay(ctx, catalog.Track{ID: "a"}); err != nil {
		t.Fatalf("LoadAndPlay: %v", err)
	}
	if m.State() != StatusPlaying {
		t.Errorf("State = %v, want playing", m.State())
	}

	if err := m.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if m.State() != StatusPaused {
		t.Errorf("State = %v, want paused", m.State())
	}

	if err := m.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if m.State() != StatusPlaying {
		t.Errorf("State = %v, want playing", m.State())
	}
}

func TestMock_StopClearsTrack(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	_ = m.LoadAndPlay(ctx, catalog.Track{ID: "a"})

	_ = m.Stop(ctx)

	if m.ActiveTrack() != nil {
		t.Error("ActiveTrack should be nil after Stop")
	}
	if m.State() != StatusStopped {
		t.Errorf("State = %v, want stopped", m.State())
	}
}

func TestMock_FailOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	m.SetPlayError(errors.New("transient"))
	m.FailOnce()

	if err := m.LoadAndPlay(ctx, catalog.Track{ID: "a"}); err == nil {
		t.Fatal("first LoadAndPlay should fail")
	}
	if err := m.LoadAndPlay(ctx, catalog.Track{ID: "a"}); err != nil {
		t.Fatalf("second LoadAndPlay should succeed, got %v", err)
	}
}

func TestMock_EventsOnPlay(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	sub := m.Subscribe()

	_ = m.LoadAndPlay(ctx, catalog.Track{ID: "a"})

	select {
	case e := <-sub.TrackChanged:
		if e.Current == nil || e.Current.ID != "a" {
			t.Errorf("TrackChanged.Current = %v, want a", e.Current)
		}
	default:
		t.Fatal("no TrackChanged event")
	}
	select {
	case e := <-sub.StatusChanged:
		if e.Current != StatusPlaying {
			t.Errorf("StatusChanged.Current = %v, want playing", e.Current)
		}
	default:
		t.Fatal("no StatusChanged event")
	}
}

func TestMock_SetActiveEmitsNothing(t *testing.T) {
	m := NewMock()
	sub := m.Subscribe()

	m.SetActive(catalog.Track{ID: "a"}, StatusPlaying, 37*time.Second, 3*time.Minute)

	select {
	case <-sub.TrackChanged:
		t.Error("SetActive must not emit events")
	default:
	}

	p := m.Progress()
	if p.Position != 37*time.Second || p.Duration != 3*time.Minute {
		t.Errorf("Progress = %+v, want 37s/3m", p)
	}
}

func TestMock_SetupIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMock()

	if err := m.Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := m.Setup(ctx); err != nil {
		t.Fatalf("re-entrant Setup should succeed, got %v", err)
	}
	if m.SetupCount() != 2 {
		t.Errorf("SetupCount = %d, want 2", m.SetupCount())
	}
}
