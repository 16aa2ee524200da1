package engine

import "time"

// Status represents the playback engine state.
type Status int

const (
	StatusNone Status = iota
	StatusPlaying
	StatusPaused
	StatusBuffering
	StatusStopped
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusBuffering:
		return "buffering"
	case StatusStopped:
		return "stopped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive returns true if a track is loaded (playing, paused or buffering).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused || s == StatusBuffering
}

// Progress is the position/duration pair of the active track.
type Progress struct {
	Position time.Duration
	Duration time.Duration
}
