package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"ytgrab/internal/logger"
	"ytgrab/internal/metadata"
)

func stubTrack(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 256)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDestDirFor(t *testing.T) {
	p := &Pipeline{log: logger.New(false)}
	out := t.TempDir()

	path := stubTrack(t, t.TempDir(), "track.mp3")
	rec := metadata.TrackRecord{Title: "Blinding Lights", Artist: "The Weeknd", Album: "After Hours"}
	if err := metadata.WriteTags(path, rec); err != nil {
		t.Fatalf("WriteTags: %v", err)
	}

	want := filepath.Join(out, "The Weeknd", "After Hours")
	if got := p.destDirFor(out, path, 0); got != want {
		t.Errorf("destDirFor = %q, want %q", got, want)
	}

	// Playlist tracks stay flat in the playlist folder.
	if got := p.destDirFor(out, path, 12); got != out {
		t.Errorf("destDirFor(playlist) = %q, want %q", got, out)
	}
}

func TestRenameToAlbum(t *testing.T) {
	p := &Pipeline{log: logger.New(false)}
	root := t.TempDir()

	folder := filepath.Join(root, "Playlist")
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}
	stubTrack(t, folder, "01 A - T.mp3")
	stubTrack(t, folder, "02 B - U.mp3")

	renamed, ok := p.renameToAlbum(folder, "After Hours")
	if !ok {
		t.Fatal("rename should succeed")
	}
	if want := filepath.Join(root, "After Hours"); renamed != want {
		t.Errorf("renamed = %q, want %q", renamed, want)
	}
	for _, name := range []string{"01 A - T.mp3", "02 B - U.mp3"} {
		if _, err := os.Stat(filepath.Join(renamed, name)); err != nil {
			t.Errorf("track %s not moved: %v", name, err)
		}
	}
	if _, err := os.Stat(folder); !os.IsNotExist(err) {
		t.Error("old folder should be removed")
	}
}

func TestRenameToAlbumRejectsGenericNames(t *testing.T) {
	p := &Pipeline{log: logger.New(false)}
	folder := filepath.Join(t.TempDir(), "Playlist")
	if err := os.MkdirAll(folder, 0755); err != nil {
		t.Fatal(err)
	}

	for _, album := range []string{"", "playlist", "Playlist"} {
		if _, ok := p.renameToAlbum(folder, album); ok {
			t.Errorf("album %q must not trigger a rename", album)
		}
	}
}

func TestIsPlaylistURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=abc&list=PL123", true},
		{"https://www.youtube.com/playlist?list=PL123", true},
		{"https://www.youtube.com/watch?v=abc", false},
		{"https://youtu.be/abc", false},
	}
	for _, c := range cases {
		if got := IsPlaylistURL(c.url); got != c.want {
			t.Errorf("IsPlaylistURL(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}
