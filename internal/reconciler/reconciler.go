// Package reconciler drives the playback engine and the head unit toward
// one consistent session state.
package reconciler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"drivesync/internal/browse"
	"drivesync/internal/catalog"
	"drivesync/internal/engine"
	"drivesync/internal/history"
	"drivesync/internal/surface"
)

// DefaultGraceInterval is the pause-to-resume wait used by the routing
// restart when none is configured.
const DefaultGraceInterval = 2 * time.Second

const eventQueueSize = 64

var (
	// ErrNotFound is returned by PlayByID for an unknown track id.
	ErrNotFound = errors.New("track not found in catalog")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("reconciler closed")
	// ErrChannelDisabled is returned for events on a channel the
	// deployment did not enable.
	ErrChannelDisabled = errors.New("channel not enabled")
)

// Config holds the reconciler's constructor-time collaborators and tuning.
type Config struct {
	Engine    engine.Engine
	Catalog   catalog.Source
	History   *history.Store
	Publisher surface.Publisher

	// Channels lists the enabled connection channels. Empty means both.
	Channels []Channel
	// GraceInterval is the routing-restart wait. Zero means default.
	GraceInterval time.Duration
	// Browse configures tree presentation.
	Browse browse.Options

	Log *zap.Logger
}

// Reconciler is the session state machine. One instance per process;
// all inbound events are serialized onto a single event loop.
type Reconciler struct {
	engine    engine.Engine
	catalog   catalog.Source
	history   *history.Store
	publisher surface.Publisher
	enabled   map[Channel]bool
	grace     time.Duration
	browseOpt browse.Options
	log       *zap.Logger

	events chan event
	done   chan struct{}
	loopWG sync.WaitGroup

	closeOnce sync.Once

	// Loop-owned state, mirrored into snapshot for readers.
	connected       map[Channel]bool
	status          engine.Status
	progress        engine.Progress
	current         *catalog.Track
	restartInFlight bool

	snapMu sync.RWMutex
	snap   Snapshot
}

type event interface{ isEvent() }

type connEvent struct {
	ConnectionEvent
}

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdPause
	cmdStop
	cmdPlayByID
)

type commandEvent struct {
	kind    commandKind
	trackID string
	reply   chan error
}

type engineEvent struct {
	status   *engine.StatusChange
	track    *engine.TrackChange
	progress *engine.ProgressChange
	err      *engine.ErrorEvent
}

func (connEvent) isEvent()    {}
func (commandEvent) isEvent() {}
func (engineEvent) isEvent()  {}

// New creates a Reconciler. Call Start to begin processing.
func New(cfg Config) (*Reconciler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("reconciler: engine is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("reconciler: catalog is required")
	}
	if cfg.History == nil {
		return nil, errors.New("reconciler: history is required")
	}
	if cfg.Publisher == nil {
		return nil, errors.New("reconciler: publisher is required")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	channels := cfg.Channels
	if len(channels) == 0 {
		channels = []Channel{ChannelSession, ChannelBrowse}
	}
	enabled := make(map[Channel]bool, len(channels))
	for _, ch := range channels {
		enabled[ch] = true
	}

	grace := cfg.GraceInterval
	if grace <= 0 {
		grace = DefaultGraceInterval
	}

	return &Reconciler{
		engine:    cfg.Engine,
		catalog:   cfg.Catalog,
		history:   cfg.History,
		publisher: cfg.Publisher,
		enabled:   enabled,
		grace:     grace,
		browseOpt: cfg.Browse,
		log:       cfg.Log.Named("reconciler"),
		events:    make(chan event, eventQueueSize),
		done:      make(chan struct{}),
		connected: make(map[Channel]bool),
		status:    engine.StatusNone,
	}, nil
}

// Start launches the event loop and attaches to the engine's event stream.
func (r *Reconciler) Start() {
	sub := r.engine.Subscribe()
	r.loopWG.Add(2)
	go r.pump(sub)
	go r.run()
}

// Close tears the reconciler down: the engine subscription is released and
// queued events are dropped. Playback itself is left alone.
func (r *Reconciler) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.loopWG.Wait()
	return nil
}

// Connection reports a head unit lifecycle event. Events on channels the
// deployment did not enable are rejected.
func (r *Reconciler) Connection(ev ConnectionEvent) error {
	if !r.enabled[ev.Channel] {
		return ErrChannelDisabled
	}
	select {
	case r.events <- connEvent{ev}:
		return nil
	case <-r.done:
		return ErrClosed
	}
}

// Play handles a transport "play" command: resume the active track, or
// start the most recent history entry when idle.
func (r *Reconciler) Play(ctx context.Context) error {
	return r.command(ctx, commandEvent{kind: cmdPlay})
}

// Pause pauses the active track if playing; no-op otherwise.
func (r *Reconciler) Pause(ctx context.Context) error {
	return r.command(ctx, commandEvent{kind: cmdPause})
}

// StopPlayback stops playback and clears the current-track reference.
func (r *Reconciler) StopPlayback(ctx context.Context) error {
	return r.command(ctx, commandEvent{kind: cmdStop})
}

// PlayByID starts playback of a catalog track. Returns ErrNotFound, with
// no side effects, when the id is not in the catalog.
func (r *Reconciler) PlayByID(ctx context.Context, id string) error {
	return r.command(ctx, commandEvent{kind: cmdPlayByID, trackID: id})
}

func (r *Reconciler) command(ctx context.Context, cmd commandEvent) error {
	cmd.reply = make(chan error, 1)
	select {
	case r.events <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
}
