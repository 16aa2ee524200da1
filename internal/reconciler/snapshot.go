package reconciler

import (
	"drivesync/internal/catalog"
	"drivesync/internal/engine"
)

// Snapshot is a read-only view of the reconciler's state for collaborators
// outside the event loop (control surfaces, diagnostics).
type Snapshot struct {
	Status          engine.Status
	Progress        engine.Progress
	Track           *catalog.Track
	Connected       map[Channel]bool
	RestartInFlight bool
}

// updateSnapshot mirrors loop-owned state for readers. Loop-only.
func (r *Reconciler) updateSnapshot() {
	connected := make(map[Channel]bool, len(r.connected))
	for ch, ok := range r.connected {
		connected[ch] = ok
	}
	var track *catalog.Track
	if r.current != nil {
		t := *r.current
		track = &t
	}
	r.snapMu.Lock()
	r.snap = Snapshot{
		Status:          r.status,
		Progress:        r.progress,
		Track:           track,
		Connected:       connected,
		RestartInFlight: r.restartInFlight,
	}
	r.snapMu.Unlock()
}

// Snapshot returns the most recent state the event loop has applied.
func (r *Reconciler) Snapshot() Snapshot {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snap
}
