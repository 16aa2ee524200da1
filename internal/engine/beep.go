package engine

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"drivesync/internal/catalog"
)

const (
	speakerSampleRate = beep.SampleRate(44100)
	progressInterval  = 500 * time.Millisecond
)

// Beep plays local audio files through the system speaker.
type Beep struct {
	log *zap.Logger

	mu          sync.Mutex
	initialized bool
	status      Status
	active      *catalog.Track
	streamer    beep.StreamSeekCloser
	format      beep.Format
	file        *os.File
	ctrl        *beep.Ctrl
	watchCancel chan struct{}

	subs   subscribers
	closed chan struct{}
}

// NewBeep creates a speaker-backed engine. Call Setup before use.
func NewBeep(log *zap.Logger) *Beep {
	return &Beep{
		log:    log,
		status: StatusNone,
		closed: make(chan struct{}),
	}
}

// Setup initializes the speaker. Safe to call more than once; an already
// initialized engine reports success.
func (b *Beep) Setup(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return nil
	}
	if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	b.initialized = true
	go b.progressLoop()
	return nil
}

func (b *Beep) LoadAndPlay(_ context.Context, track catalog.Track) error {
	path, err := mediaPath(track.MediaURI)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if !b.initialized {
		b.mu.Unlock()
		return fmt.Errorf("engine not initialized")
	}
	b.stopLocked()

	f, err := os.Open(path)
	if err != nil {
		b.mu.Unlock()
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		b.mu.Unlock()
		return err
	}

	b.file = f
	b.streamer = streamer
	b.format = format
	b.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, speakerSampleRate, streamer)}

	prevTrack := b.active
	prev := b.status
	t := track
	b.active = &t
	b.status = StatusPlaying
	ctrl := b.ctrl
	done := make(chan struct{})
	cancel := make(chan struct{})
	b.watchCancel = cancel
	b.mu.Unlock()

	// The callback runs on the speaker's streaming goroutine with the
	// speaker mutex held; it must only signal, never touch b.mu. The
	// watcher applies the end-of-track transition outside that lock.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		close(done)
	})))
	go b.watchFinished(done, cancel, &t)

	b.subs.broadcastTrack(TrackChange{Previous: prevTrack, Current: &t})
	b.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusPlaying})
	return nil
}

func (b *Beep) Pause(_ context.Context) error {
	b.mu.Lock()
	if b.ctrl == nil || b.status != StatusPlaying {
		b.mu.Unlock()
		return nil
	}
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
	prev := b.status
	b.status = StatusPaused
	b.mu.Unlock()

	b.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusPaused})
	return nil
}

func (b *Beep) Resume(_ context.Context) error {
	b.mu.Lock()
	if b.ctrl == nil || b.status != StatusPaused {
		b.mu.Unlock()
		return nil
	}
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
	prev := b.status
	b.status = StatusPlaying
	b.mu.Unlock()

	b.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusPlaying})
	return nil
}

func (b *Beep) Stop(_ context.Context) error {
	b.mu.Lock()
	prevTrack := b.active
	prev := b.status
	b.stopLocked()
	b.active = nil
	b.status = StatusStopped
	b.mu.Unlock()

	if prevTrack != nil {
		b.subs.broadcastTrack(TrackChange{Previous: prevTrack, Current: nil})
	}
	if prev != StatusStopped {
		b.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusStopped})
	}
	return nil
}

func (b *Beep) Seek(_ context.Context, pos time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamer == nil {
		return fmt.Errorf("no active track")
	}
	speaker.Lock()
	err := b.streamer.Seek(b.format.SampleRate.N(pos))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek to %s: %w", pos, err)
	}
	return nil
}

func (b *Beep) State() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Beep) Progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progressLocked()
}

func (b *Beep) progressLocked() Progress {
	if b.streamer == nil {
		return Progress{}
	}
	speaker.Lock()
	pos := b.streamer.Position()
	length := b.streamer.Len()
	speaker.Unlock()
	return Progress{
		Position: b.format.SampleRate.D(pos),
		Duration: b.format.SampleRate.D(length),
	}
}

func (b *Beep) ActiveTrack() *catalog.Track {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return nil
	}
	t := *b.active
	return &t
}

func (b *Beep) Subscribe() *Subscription {
	return b.subs.add()
}

func (b *Beep) Unsubscribe(sub *Subscription) {
	b.subs.remove(sub)
}

func (b *Beep) Close() error {
	b.mu.Lock()
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	b.stopLocked()
	b.mu.Unlock()
	b.subs.closeAll()
	return nil
}

// stopLocked clears the speaker and releases the current streamer.
// Caller holds b.mu.
func (b *Beep) stopLocked() {
	if b.streamer == nil {
		return
	}
	speaker.Clear()
	b.streamer.Close()
	if b.file != nil {
		b.file.Close()
	}
	b.streamer = nil
	b.file = nil
	b.ctrl = nil
	if b.watchCancel != nil {
		close(b.watchCancel)
		b.watchCancel = nil
	}
}

// watchFinished waits for the stream's end-of-track signal and applies the
// transition from its own goroutine. cancel fires when the track is
// replaced or stopped before finishing.
func (b *Beep) watchFinished(done, cancel <-chan struct{}, t *catalog.Track) {
	select {
	case <-done:
		b.trackFinished(t)
	case <-cancel:
	case <-b.closed:
	}
}

// trackFinished handles natural end of stream.
func (b *Beep) trackFinished(t *catalog.Track) {
	b.mu.Lock()
	// A newer track may already be active; only clear if ours still is.
	if b.active == nil || b.active.ID != t.ID {
		b.mu.Unlock()
		return
	}
	prev := b.status
	b.active = nil
	b.status = StatusStopped
	if b.streamer != nil {
		b.streamer.Close()
		b.streamer = nil
	}
	b.ctrl = nil
	b.watchCancel = nil
	if b.file != nil {
		b.file.Close()
		b.file = nil
	}
	b.mu.Unlock()

	b.log.Debug("track finished", zap.String("track", t.ID))
	b.subs.broadcastTrack(TrackChange{Previous: t, Current: nil})
	b.subs.broadcastStatus(StatusChange{Previous: prev, Current: StatusStopped})
}

// progressLoop emits periodic progress events while playing.
func (b *Beep) progressLoop() {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.closed:
			return
		case <-ticker.C:
			b.mu.Lock()
			playing := b.status == StatusPlaying && b.streamer != nil
			var p Progress
			if playing {
				p = b.progressLocked()
			}
			b.mu.Unlock()
			if playing {
				b.subs.broadcastProgress(ProgressChange{Position: p.Position, Duration: p.Duration})
			}
		}
	}
}

// mediaPath resolves a track media locator to a local file path.
// Accepts plain paths and file:// URIs.
func mediaPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("media locator %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported media scheme %q", u.Scheme)
	}
	return u.Path, nil
}

// Verify Beep implements Engine at compile time.
var _ Engine = (*Beep)(nil)
