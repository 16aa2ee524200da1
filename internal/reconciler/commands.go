package reconciler

import (
	"context"

	"go.uber.org/zap"

	"drivesync/internal/catalog"
	"drivesync/internal/engine"
)

// handleCommand applies one transport command and reads the engine's
// resulting state back before republishing.
func (r *Reconciler) handleCommand(cmd commandEvent) error {
	ctx := context.Background()
	var err error
	switch cmd.kind {
	case cmdPlay:
		err = r.doPlay(ctx)
	case cmdPause:
		err = r.doPause(ctx)
	case cmdStop:
		err = r.doStop(ctx)
	case cmdPlayByID:
		err = r.doPlayByID(ctx, cmd.trackID)
		if err == ErrNotFound {
			// No side effects, surface unchanged.
			return err
		}
	}

	r.refreshFromEngine()
	if err != nil {
		r.status = engine.StatusError
	}
	r.publishNowPlaying()
	return err
}

func (r *Reconciler) doPlay(ctx context.Context) error {
	track := r.engine.ActiveTrack()
	status := r.engine.State()

	switch {
	case track != nil && status == engine.StatusPlaying:
		// Already playing: nothing beyond the state read.
		return nil
	case track != nil:
		return r.withRetry(ctx, "resume", func() error {
			return r.engine.Resume(ctx)
		})
	default:
		recent, ok := r.history.MostRecent()
		if !ok {
			return nil
		}
		return r.startTrack(ctx, recent)
	}
}

func (r *Reconciler) doPause(ctx context.Context) error {
	if r.engine.State() != engine.StatusPlaying {
		return nil
	}
	return r.withRetry(ctx, "pause", func() error {
		return r.engine.Pause(ctx)
	})
}

func (r *Reconciler) doStop(ctx context.Context) error {
	err := r.withRetry(ctx, "stop", func() error {
		return r.engine.Stop(ctx)
	})
	r.current = nil
	r.progress = engine.Progress{}
	return err
}

func (r *Reconciler) doPlayByID(ctx context.Context, id string) error {
	track, ok := r.catalog.Lookup(id)
	if !ok {
		return ErrNotFound
	}
	return r.startTrack(ctx, track)
}

// startTrack issues load-and-play and, on success, records the track into
// history and republishes the browse tree.
func (r *Reconciler) startTrack(ctx context.Context, track catalog.Track) error {
	err := r.withRetry(ctx, "play", func() error {
		return r.engine.LoadAndPlay(ctx, track)
	})
	if err != nil {
		return err
	}
	r.history.Record(track)
	r.publishBrowseTree()
	return nil
}

// withRetry runs op, and on failure re-invokes engine Setup and retries op
// once. A second failure is logged and surfaced as an error status; the
// reconciler itself keeps running.
func (r *Reconciler) withRetry(ctx context.Context, name string, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}
	r.log.Warn("engine call failed, retrying after setup",
		zap.String("operation", name), zap.Error(err))
	if setupErr := r.engine.Setup(ctx); setupErr != nil {
		r.log.Error("engine re-setup failed",
			zap.String("operation", name), zap.Error(setupErr))
		return err
	}
	if err = op(); err != nil {
		r.log.Error("engine call failed after retry",
			zap.String("operation", name), zap.Error(err))
		return err
	}
	return nil
}
