package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeCatalog(t, `
[[tracks]]
id = "t1"
title = "First"
artist = "Someone"
media_uri = "file:///music/first.mp3"
artwork_uri = "file:///music/first.jpg"

[[tracks]]
id = "t2"
title = "Second"
artist = "Someone Else"
media_uri = "file:///music/second.flac"
`)

	src, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	tracks := src.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(tracks))
	}
	if tracks[0].ID != "t1" || tracks[1].ID != "t2" {
		t.Errorf("track order = [%s %s], want file order [t1 t2]", tracks[0].ID, tracks[1].ID)
	}

	got, ok := src.Lookup("t1")
	if !ok {
		t.Fatal("Lookup(t1) not found")
	}
	if got.Title != "First" || got.Artist != "Someone" ||
		got.MediaURI != "file:///music/first.mp3" || got.ArtworkURI != "file:///music/first.jpg" {
		t.Errorf("Lookup(t1) = %+v", got)
	}

	if _, ok := src.Lookup("missing"); ok {
		t.Error("Lookup(missing) = found, want not found")
	}
}

func TestLoadFileMissingID(t *testing.T) {
	path := writeCatalog(t, `
[[tracks]]
title = "No ID"
media_uri = "file:///x.mp3"
`)
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile should reject a track without an id")
	}
}

func TestLoadFileAbsent(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
}

func TestStaticDuplicateIDsKeepFirst(t *testing.T) {
	src := NewStatic([]Track{
		{ID: "a", Title: "Original"},
		{ID: "a", Title: "Duplicate"},
		{ID: "b", Title: "Other"},
	})

	if got := len(src.Tracks()); got != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", got)
	}
	if track, _ := src.Lookup("a"); track.Title != "Original" {
		t.Errorf("Lookup(a).Title = %q, want first occurrence kept", track.Title)
	}
}

func TestTracksReturnsCopy(t *testing.T) {
	src := NewStatic([]Track{{ID: "a", Title: "Alpha"}})

	tracks := src.Tracks()
	tracks[0].Title = "mutated"

	if track, _ := src.Lookup("a"); track.Title != "Alpha" {
		t.Error("mutating the returned slice must not affect the source")
	}
}
