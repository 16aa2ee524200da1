//go:build linux

package mpris

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"drivesync/internal/engine"
	"drivesync/internal/reconciler"
)

// Controller is the slice of the reconciler MPRIS drives.
type Controller interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	StopPlayback(ctx context.Context) error
	Snapshot() reconciler.Snapshot
}

// Adapter exposes the session over MPRIS so desktop controllers act as an
// additional command source.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	engine engine.Engine
	sub    *engine.Subscription
	done   chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(ctrl Controller, eng engine.Engine) (*Adapter, error) {
	a := &Adapter{
		engine: eng,
		done:   make(chan struct{}),
	}
	a.server = server.NewServer("drivesync", &rootAdapter{}, &playerAdapter{ctrl: ctrl})
	a.events = events.NewEventHandler(a.server)
	a.sub = eng.Subscribe()

	go func() {
		_ = a.server.Listen()
	}()
	go a.pump()

	return a, nil
}

// pump pushes engine changes out as MPRIS property-change signals, so bus
// clients see status and metadata updates without polling.
func (a *Adapter) pump() {
	for {
		select {
		case <-a.done:
			return
		case <-a.sub.Done:
			return
		case <-a.sub.StatusChanged:
			_ = a.events.Player.OnPlayPause()
		case <-a.sub.TrackChanged:
			_ = a.events.Player.OnTitle()
		case <-a.sub.ProgressChanged:
		case <-a.sub.Error:
		}
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	a.engine.Unsubscribe(a.sub)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Drivesync", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	ctrl Controller
}

func (p *playerAdapter) Next() error {
	return nil // No queue navigation in the session
}

func (p *playerAdapter) Previous() error {
	return nil // No queue navigation in the session
}

func (p *playerAdapter) Pause() error {
	return p.ctrl.Pause(context.Background())
}

func (p *playerAdapter) PlayPause() error {
	if p.ctrl.Snapshot().Status == engine.StatusPlaying {
		return p.ctrl.Pause(context.Background())
	}
	return p.ctrl.Play(context.Background())
}

func (p *playerAdapter) Stop() error {
	return p.ctrl.StopPlayback(context.Background())
}

func (p *playerAdapter) Play() error {
	return p.ctrl.Play(context.Background())
}

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return nil // Seeking is owned by the routing restart, not exposed
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return nil // Not supported
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.ctrl.Snapshot().Status {
	case engine.StatusPlaying, engine.StatusBuffering:
		return types.PlaybackStatusPlaying, nil
	case engine.StatusPaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.ctrl.Snapshot()
	if snap.Track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(snap.Track.ID)),
		Length:  types.Microseconds(snap.Progress.Duration.Microseconds()),
		Title:   snap.Track.Title,
		Artist:  []string{snap.Track.Artist},
	}
	if snap.Track.ArtworkURI != "" {
		meta.ArtUrl = snap.Track.ArtworkURI
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.ctrl.Snapshot().Progress.Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
