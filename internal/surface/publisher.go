// Package surface translates reconciler state into head unit displays.
package surface

import (
	"time"

	"drivesync/internal/browse"
	"drivesync/internal/engine"
)

// Screen ids pushed via PublishScreen.
const (
	ScreenNowPlaying = "now_playing"
	ScreenBrowse     = "browse"
)

// NowPlaying describes the now-playing pane.
type NowPlaying struct {
	Status   engine.Status `json:"status"`
	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
	TrackID  string        `json:"track_id,omitempty"`
	Title    string        `json:"title,omitempty"`
	Artist   string        `json:"artist,omitempty"`
	// ShowPause is the play/pause affordance: true while actually playing.
	ShowPause bool `json:"show_pause"`
}

// Nothing is the now-playing surface shown when no track is loaded.
func Nothing() NowPlaying {
	return NowPlaying{Status: engine.StatusNone}
}

// Publisher delivers surfaces to a head unit channel. Fire-and-forget:
// implementations log failures and never retry, the next state change
// republishes naturally.
type Publisher interface {
	PublishNowPlaying(np NowPlaying)
	PublishBrowseTree(tree browse.Tree)
	PublishScreen(screenID string, content any)
}
