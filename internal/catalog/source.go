package catalog

import (
	"fmt"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source provides the track catalog shown on the head unit.
type Source interface {
	// Tracks returns all catalog tracks in display order.
	Tracks() []Track
	// Lookup returns the track with the given id, or false if absent.
	Lookup(id string) (Track, bool)
}

// Static is an in-memory Source.
type Static struct {
	tracks []Track
	byID   map[string]Track
}

// NewStatic creates a Source from a fixed track list.
// Tracks with duplicate ids keep the first occurrence.
func NewStatic(tracks []Track) *Static {
	s := &Static{
		tracks: make([]Track, 0, len(tracks)),
		byID:   make(map[string]Track, len(tracks)),
	}
	for _, t := range tracks {
		if _, ok := s.byID[t.ID]; ok {
			continue
		}
		s.tracks = append(s.tracks, t)
		s.byID[t.ID] = t
	}
	return s
}

func (s *Static) Tracks() []Track {
	result := make([]Track, len(s.tracks))
	copy(result, s.tracks)
	return result
}

func (s *Static) Lookup(id string) (Track, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// LoadFile reads a TOML catalog file of the form:
//
//	[[tracks]]
//	id = "t1"
//	title = "..."
//	artist = "..."
//	media_uri = "file:///..."
func LoadFile(path string) (*Static, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var raw struct {
		Tracks []Track `koanf:"tracks"`
	}
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for i, t := range raw.Tracks {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog %s: track %d has no id", path, i)
		}
	}

	return NewStatic(raw.Tracks), nil
}
