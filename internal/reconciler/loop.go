package reconciler

import (
	"context"

	"go.uber.org/zap"

	"drivesync/internal/browse"
	"drivesync/internal/engine"
	"drivesync/internal/surface"
)

// pump forwards engine events onto the single ordered queue.
func (r *Reconciler) pump(sub *engine.Subscription) {
	defer r.loopWG.Done()
	defer r.engine.Unsubscribe(sub)
	for {
		var ev engineEvent
		select {
		case <-r.done:
			return
		case <-sub.Done:
			return
		case e := <-sub.StatusChanged:
			ev.status = &e
		case e := <-sub.TrackChanged:
			ev.track = &e
		case e := <-sub.ProgressChanged:
			ev.progress = &e
		case e := <-sub.Error:
			ev.err = &e
		}
		select {
		case r.events <- ev:
		case <-r.done:
			return
		}
	}
}

// run is the single logical thread of control: events are applied one at a
// time, in arrival order, against the reconciler's state.
func (r *Reconciler) run() {
	defer r.loopWG.Done()
	for {
		select {
		case <-r.done:
			return
		case ev := <-r.events:
			switch e := ev.(type) {
			case connEvent:
				r.handleConnection(e.ConnectionEvent)
			case commandEvent:
				e.reply <- r.handleCommand(e)
			case engineEvent:
				r.handleEngineEvent(e)
			}
			r.updateSnapshot()
		}
	}
}

func (r *Reconciler) handleConnection(ev ConnectionEvent) {
	log := r.log.With(zap.Stringer("channel", ev.Channel))
	switch ev.Kind {
	case Connected:
		if r.connected[ev.Channel] {
			log.Debug("duplicate connect ignored")
			return
		}
		alreadyConnected := r.anyConnected()
		r.connected[ev.Channel] = true
		log.Info("head unit connected")
		if alreadyConnected {
			// Audio routing was already reconciled by the first
			// channel; the new channel only needs a state sync.
			r.publishAll()
			return
		}
		r.reconcileOnConnect(log)
	case Disconnected:
		if !r.connected[ev.Channel] {
			return
		}
		r.connected[ev.Channel] = false
		r.restartInFlight = false
		// Playback is never stopped here: the phone keeps playing on
		// its own. Only surface publication to this channel ends.
		log.Info("head unit disconnected")
	}
}

// reconcileOnConnect runs transition 1: bring an already-running (or
// resumable) local session onto the car, then sync the surfaces.
func (r *Reconciler) reconcileOnConnect(log *zap.Logger) {
	ctx := context.Background()
	if err := r.engine.Setup(ctx); err != nil {
		log.Error("engine setup on connect failed", zap.Error(err))
	}

	track := r.engine.ActiveTrack()
	status := r.engine.State()

	var cmdErr error
	switch {
	case track != nil && status == engine.StatusPlaying:
		// Restart failures fall back to whatever the engine reports;
		// no error status is forced here.
		r.routingRestart(log)
	case track != nil:
		// Paused or buffering: a connect signals intent to listen in
		// the car, so resume unconditionally.
		if cmdErr = r.withRetry(ctx, "resume", func() error {
			return r.engine.Resume(ctx)
		}); cmdErr != nil {
			log.Error("resume on connect failed", zap.Error(cmdErr))
		}
	default:
		if recent, ok := r.history.MostRecent(); ok {
			if cmdErr = r.startTrack(ctx, recent); cmdErr != nil {
				log.Error("history replay on connect failed",
					zap.String("track", recent.ID), zap.Error(cmdErr))
			}
		}
	}

	r.refreshFromEngine()
	if cmdErr != nil {
		r.status = engine.StatusError
	}
	r.publishAll()
}

func (r *Reconciler) handleEngineEvent(ev engineEvent) {
	switch {
	case ev.status != nil:
		r.status = ev.status.Current
	case ev.track != nil:
		r.current = ev.track.Current
		if ev.track.Current == nil {
			r.progress = engine.Progress{}
		}
	case ev.progress != nil:
		r.progress = engine.Progress{
			Position: ev.progress.Position,
			Duration: ev.progress.Duration,
		}
	case ev.err != nil:
		r.log.Warn("engine error",
			zap.String("operation", ev.err.Operation),
			zap.Error(ev.err.Err))
		r.status = engine.StatusError
	}

	// Cache always; publish only when a channel is listening.
	if r.anyConnected() {
		r.publishNowPlaying()
	}
}

func (r *Reconciler) anyConnected() bool {
	for _, ok := range r.connected {
		if ok {
			return true
		}
	}
	return false
}

// refreshFromEngine re-reads the engine's actual state. Commands never
// assume success; this is the read-back.
func (r *Reconciler) refreshFromEngine() {
	r.status = r.engine.State()
	r.progress = r.engine.Progress()
	r.current = r.engine.ActiveTrack()
}

func (r *Reconciler) nowPlaying() surface.NowPlaying {
	// A stopped engine with no track is simply nothing playing.
	if r.current == nil && r.status == engine.StatusStopped {
		return surface.Nothing()
	}
	np := surface.NowPlaying{
		Status:    r.status,
		Position:  r.progress.Position,
		Duration:  r.progress.Duration,
		ShowPause: r.status == engine.StatusPlaying,
	}
	if r.current != nil {
		np.TrackID = r.current.ID
		np.Title = r.current.Title
		np.Artist = r.current.Artist
	}
	return np
}

// publishNowPlaying emits the now-playing surface if any channel is up.
func (r *Reconciler) publishNowPlaying() {
	if !r.anyConnected() {
		return
	}
	r.publisher.PublishNowPlaying(r.nowPlaying())
}

// publishBrowseTree rebuilds and emits the browse tree if any channel is up.
func (r *Reconciler) publishBrowseTree() {
	if !r.anyConnected() {
		return
	}
	tree := browse.Build(r.catalog.Tracks(), r.history.List(), r.browseOpt)
	r.publisher.PublishBrowseTree(tree)
}

// publishScreen directs the head unit to its landing screen: now playing
// when a track is active, browse otherwise. Pushed only during the
// connect-time sync; commands never navigate.
func (r *Reconciler) publishScreen() {
	if !r.anyConnected() {
		return
	}
	screen := surface.ScreenBrowse
	if r.current != nil {
		screen = surface.ScreenNowPlaying
	}
	r.publisher.PublishScreen(screen, nil)
}

// publishAll is the connect-time sync: surfaces plus the landing screen.
func (r *Reconciler) publishAll() {
	r.publishNowPlaying()
	r.publishBrowseTree()
	r.publishScreen()
}
