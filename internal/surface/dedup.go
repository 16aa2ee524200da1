package surface

import (
	"reflect"
	"sync"

	"drivesync/internal/browse"
)

// Dedup wraps a Publisher and drops consecutive publications of identical
// logical state, making republication idempotent for the channel behind it.
// Position-only changes still pass through (progress display).
type Dedup struct {
	next Publisher

	mu       sync.Mutex
	lastNP   *NowPlaying
	lastTree browse.Tree
}

// NewDedup wraps next with duplicate suppression.
func NewDedup(next Publisher) *Dedup {
	return &Dedup{next: next}
}

func (d *Dedup) PublishNowPlaying(np NowPlaying) {
	d.mu.Lock()
	if d.lastNP != nil && *d.lastNP == np {
		d.mu.Unlock()
		return
	}
	snapshot := np
	d.lastNP = &snapshot
	d.mu.Unlock()
	d.next.PublishNowPlaying(np)
}

func (d *Dedup) PublishBrowseTree(tree browse.Tree) {
	d.mu.Lock()
	if d.lastTree != nil && reflect.DeepEqual(d.lastTree, tree) {
		d.mu.Unlock()
		return
	}
	d.lastTree = tree
	d.mu.Unlock()
	d.next.PublishBrowseTree(tree)
}

func (d *Dedup) PublishScreen(screenID string, content any) {
	d.next.PublishScreen(screenID, content)
}

// Reset forgets the last published state, forcing the next publication
// through. Call on reconnect so a fresh channel gets a full sync.
func (d *Dedup) Reset() {
	d.mu.Lock()
	d.lastNP = nil
	d.lastTree = nil
	d.mu.Unlock()
}

var _ Publisher = (*Dedup)(nil)
