// Package history keeps the bounded most-recently-played list.
package history

import (
	"sync"

	"go.uber.org/zap"

	"drivesync/internal/catalog"
)

// DefaultCapacity is the history size used when none is configured.
const DefaultCapacity = 10

// Persister stores the history across restarts. Best effort: failures are
// logged by the Store and never surfaced to callers.
type Persister interface {
	Load() ([]catalog.Track, error)
	Save(tracks []catalog.Track) error
}

// Store is a bounded most-recent-first list of played tracks, unique by id.
type Store struct {
	mu       sync.Mutex
	capacity int
	entries  []catalog.Track
	persist  Persister
	log      *zap.Logger
}

// New creates a Store and populates it from the persister. A nil persister
// keeps the history in memory only.
func New(capacity int, persist Persister, log *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		capacity: capacity,
		persist:  persist,
		log:      log,
	}
	if persist != nil {
		entries, err := persist.Load()
		if err != nil {
			log.Warn("history load failed, starting empty", zap.Error(err))
		} else {
			if len(entries) > capacity {
				entries = entries[:capacity]
			}
			s.entries = entries
		}
	}
	return s
}

// Record puts track at the front, removing any entry with the same id and
// truncating to capacity. The result is persisted as a side effect.
func (s *Store) Record(track catalog.Track) {
	s.mu.Lock()
	entries := make([]catalog.Track, 0, len(s.entries)+1)
	entries = append(entries, track)
	for _, e := range s.entries {
		if e.ID == track.ID {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	s.entries = entries
	snapshot := make([]catalog.Track, len(entries))
	copy(snapshot, entries)
	s.mu.Unlock()

	if s.persist == nil {
		return
	}
	if err := s.persist.Save(snapshot); err != nil {
		s.log.Warn("history save failed, in-memory only for this session", zap.Error(err))
	}
}

// List returns the history, most recent first.
func (s *Store) List() []catalog.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]catalog.Track, len(s.entries))
	copy(result, s.entries)
	return result
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// MostRecent returns the newest entry, or false if the history is empty.
func (s *Store) MostRecent() (catalog.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return catalog.Track{}, false
	}
	return s.entries[0], true
}
