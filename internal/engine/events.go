package engine

import (
	"time"

	"drivesync/internal/catalog"
)

// StatusChange is emitted when the engine state changes.
type StatusChange struct {
	Previous Status
	Current  Status
}

// TrackChange is emitted when the active track changes.
//
// Emitted by LoadAndPlay when the new track differs from the active one,
// and by Stop (Current = nil). Pause/Resume do not emit TrackChange.
type TrackChange struct {
	Previous *catalog.Track
	Current  *catalog.Track
}

// ProgressChange is emitted on seeks and on the periodic progress tick.
type ProgressChange struct {
	Position time.Duration
	Duration time.Duration
}

// ErrorEvent is emitted when an engine operation fails asynchronously.
type ErrorEvent struct {
	Operation string // e.g. "play", "seek"
	Err       error
}
