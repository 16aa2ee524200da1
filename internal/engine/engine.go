// Package engine wraps the audio player behind an asynchronous contract.
package engine

import (
	"context"
	"time"

	"drivesync/internal/catalog"
)

// Engine is the playback engine contract.
//
// All control operations are asynchronous and context-aware; callers must
// not assume synchronous completion of the underlying audio pipeline.
// Setup is idempotent: calling it on an initialized engine succeeds.
type Engine interface {
	Setup(ctx context.Context) error
	LoadAndPlay(ctx context.Context, track catalog.Track) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error

	State() Status
	Progress() Progress
	ActiveTrack() *catalog.Track

	Subscribe() *Subscription
	Unsubscribe(sub *Subscription)
	Close() error
}
