package surface

import (
	"sync"

	"drivesync/internal/browse"
)

// Recorder is a Publisher test double that records every publication.
type Recorder struct {
	mu         sync.Mutex
	nowPlaying []NowPlaying
	trees      []browse.Tree
	screens    []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PublishNowPlaying(np NowPlaying) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nowPlaying = append(r.nowPlaying, np)
}

func (r *Recorder) PublishBrowseTree(tree browse.Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trees = append(r.trees, tree)
}

func (r *Recorder) PublishScreen(screenID string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = append(r.screens, screenID)
}

// NowPlayingCalls returns all recorded now-playing publications.
func (r *Recorder) NowPlayingCalls() []NowPlaying {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make([]NowPlaying, len(r.nowPlaying))
	copy(calls, r.nowPlaying)
	return calls
}

// LastNowPlaying returns the most recent now-playing publication.
func (r *Recorder) LastNowPlaying() (NowPlaying, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.nowPlaying) == 0 {
		return NowPlaying{}, false
	}
	return r.nowPlaying[len(r.nowPlaying)-1], true
}

// Trees returns all recorded browse tree publications.
func (r *Recorder) Trees() []browse.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	trees := make([]browse.Tree, len(r.trees))
	copy(trees, r.trees)
	return trees
}

// Screens returns all recorded screen ids.
func (r *Recorder) Screens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	screens := make([]string, len(r.screens))
	copy(screens, r.screens)
	return screens
}

// Reset clears all recorded publications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nowPlaying = nil
	r.trees = nil
	r.screens = nil
}

var _ Publisher = (*Recorder)(nil)
