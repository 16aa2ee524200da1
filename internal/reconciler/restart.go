package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// routingRestart forces audio output onto the car's route: pause, wait the
// grace interval, seek back to the pre-pause position, resume. Runs inline
// on the event loop, so any command or event arriving meanwhile stays
// queued until the sequence resolves.
//
// A failure mid-sequence aborts it; playback is left in whatever state the
// engine reports and the state machine returns to Connected.
func (r *Reconciler) routingRestart(log *zap.Logger) {
	ctx := context.Background()
	r.restartInFlight = true
	defer func() { r.restartInFlight = false }()

	pos := r.engine.Progress().Position
	log.Info("routing restart", zap.Duration("position", pos))

	if err := r.engine.Pause(ctx); err != nil {
		log.Error("routing restart aborted: pause failed", zap.Error(err))
		return
	}

	// Scheduled resumption: only this loop waits, the rest of the
	// process keeps running.
	timer := time.NewTimer(r.grace)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-r.done:
		// Teardown mid-wait still finishes the sequence; otherwise
		// the track would be left paused with no resume coming.
	}

	if pos > 0 {
		if err := r.engine.Seek(ctx, pos); err != nil {
			log.Error("routing restart aborted: seek failed", zap.Error(err))
			return
		}
	}

	if err := r.engine.Resume(ctx); err != nil {
		log.Error("routing restart aborted: resume failed", zap.Error(err))
		return
	}
}
