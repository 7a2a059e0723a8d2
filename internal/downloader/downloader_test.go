package downloader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"ytgrab/internal/logger"
)

// fakeYtdlp writes an executable script that prints the given stdout,
// standing in for the real binary.
func fakeYtdlp(t *testing.T, stdout string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	script := "#!/bin/sh\ncat <<'EOF'\n" + stdout + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTitleAndUploader(t *testing.T) {
	d := New(fakeYtdlp(t, "Artist - Song (Official Video)\nArtist Name - Topic"), logger.New(false))

	title, uploader, err := d.TitleAndUploader(context.Background(), "https://youtu.be/abc", false)
	if err != nil {
		t.Fatalf("TitleAndUploader: %v", err)
	}
	if title != "Artist - Song (Official Video)" {
		t.Errorf("title = %q", title)
	}
	if uploader != "Artist Name" {
		t.Errorf("uploader = %q, want Topic suffix stripped", uploader)
	}
}

func TestListPlaylist(t *testing.T) {
	d := New(fakeYtdlp(t, `{
		"title": "Best Of",
		"entries": [
			{"id": "vid1", "url": "https://www.youtube.com/watch?v=vid1"},
			{"id": "vid2"},
			{"id": ""}
		]
	}`), logger.New(false))

	title, urls, err := d.ListPlaylist(context.Background(), "https://youtube.com/playlist?list=x")
	if err != nil {
		t.Fatalf("ListPlaylist: %v", err)
	}
	if title != "Best Of" {
		t.Errorf("title = %q", title)
	}
	want := []string{
		"https://www.youtube.com/watch?v=vid1",
		"https://www.youtube.com/watch?v=vid2",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v", urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestListPlaylistEmpty(t *testing.T) {
	d := New(fakeYtdlp(t, `{"title": "Empty", "entries": []}`), logger.New(false))

	if _, _, err := d.ListPlaylist(context.Background(), "url"); err == nil {
		t.Error("expected error for playlist without entries")
	}
}

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/nothing", ""},
	}
	for _, c := range cases {
		if got := ExtractVideoID(c.url); got != c.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestBotwallError(t *testing.T) {
	if !BotwallError(errTest("yt-dlp failed: HTTP Error 403: Forbidden")) {
		t.Error("403 should look like a botwall")
	}
	if !BotwallError(errTest("Sign in to confirm you're not a bot")) {
		t.Error("bot check should look like a botwall")
	}
	if BotwallError(errTest("video unavailable")) {
		t.Error("unavailable video is not a botwall")
	}
	if BotwallError(nil) {
		t.Error("nil error is not a botwall")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestNewestFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "old.webm"), []byte("a"), 0644)
	older := time.Now().Add(-time.Hour)
	os.Chtimes(filepath.Join(dir, "old.webm"), older, older)
	os.WriteFile(filepath.Join(dir, "new.m4a"), []byte("b"), 0644)

	got, err := newestFile(dir)
	if err != nil {
		t.Fatalf("newestFile: %v", err)
	}
	if filepath.Base(got) != "new.m4a" {
		t.Errorf("newestFile = %q", got)
	}
}

func TestNewestFileEmptyDir(t *testing.T) {
	if _, err := newestFile(t.TempDir()); err == nil {
		t.Error("expected error for empty dir")
	}
}
