package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"ytgrab/internal/logger"
)

// Downloader fetches audio and video metadata from YouTube using yt-dlp.
type Downloader struct {
	YtdlpPath string
	Logger    *logger.Logger
}

// New creates a Downloader. ytdlpPath defaults to "yt-dlp" when empty.
func New(ytdlpPath string, log *logger.Logger) *Downloader {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Downloader{YtdlpPath: ytdlpPath, Logger: log}
}

// commonArgs are shared by every download invocation.
func (d *Downloader) commonArgs() []string {
	return []string{
		"--no-warnings",
		"--retries", "10",
		"--fragment-retries", "10",
		"--extractor-retries", "5",
		"--socket-timeout", "20",
		"--http-chunk-size", "10M",
		"--newline",
	}
}

// playerClientVariants are tried in order when the default extraction
// fails, typically on 403s or bot checks.
var playerClientVariants = [][]string{
	{"--extractor-args", "youtube:player_client=android"},
	{"--extractor-args", "youtube:player_client=ios"},
	{"--extractor-args", "youtube:player_client=tv"},
	{"--extractor-args", "youtube:player_client=web,android"},
}

// TitleAndUploader fetches the raw video title and channel name without
// downloading. The " - Topic" suffix YouTube appends to auto-generated
// artist channels is stripped from the uploader.
func (d *Downloader) TitleAndUploader(ctx context.Context, url string, allowPlaylist bool) (string, string, error) {
	baseArgs := []string{
		"--skip-download",
		"--print", "%(title)s",
		"--print", "%(uploader)s",
		"--no-warnings",
	}
	if !allowPlaylist {
		baseArgs = append(baseArgs, "--no-playlist")
	}

	tries := [][]string{baseArgs}
	for _, variant := range playerClientVariants {
		tries = append(tries, append(append([]string{}, baseArgs...), variant...))
	}

	var lastErr error
	for i, args := range tries {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		if i > 0 {
			d.Logger.Debug("Title fetch retry %d/%d", i, len(tries)-1)
		}

		out, err := d.run(ctx, append(args, url))
		if err != nil {
			lastErr = err
			continue
		}

		var lines []string
		for _, ln := range strings.Split(out, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				lines = append(lines, ln)
			}
		}

		title := strings.TrimSpace(out)
		if len(lines) >= 1 {
			title = lines[0]
		}
		uploader := ""
		if len(lines) >= 2 {
			uploader = strings.ReplaceAll(lines[1], " - Topic", "")
		}
		return title, uploader, nil
	}

	return "", "", fmt.Errorf("failed to fetch video title: %w", lastErr)
}

// ListPlaylist reads a playlist's title and entry URLs without
// downloading anything.
func (d *Downloader) ListPlaylist(ctx context.Context, url string) (string, []string, error) {
	out, err := d.run(ctx, []string{"-J", "--flat-playlist", "--no-warnings", url})
	if err != nil {
		return "", nil, fmt.Errorf("failed to read playlist metadata: %w", err)
	}

	var data struct {
		Title         string `json:"title"`
		PlaylistTitle string `json:"playlist_title"`
		Entries       []struct {
			ID          string `json:"id"`
			URL         string `json:"url"`
			WebpageURL  string `json:"webpage_url"`
			OriginalURL string `json:"original_url"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		return "", nil, fmt.Errorf("failed to parse playlist metadata: %w", err)
	}

	title := strings.TrimSpace(data.Title)
	if title == "" {
		title = strings.TrimSpace(data.PlaylistTitle)
	}
	if title == "" {
		title = "Playlist"
	}

	var urls []string
	for _, ent := range data.Entries {
		switch {
		case strings.HasPrefix(ent.URL, "http"):
			urls = append(urls, ent.URL)
		case strings.HasPrefix(ent.WebpageURL, "http"):
			urls = append(urls, ent.WebpageURL)
		case strings.HasPrefix(ent.OriginalURL, "http"):
			urls = append(urls, ent.OriginalURL)
		case ent.ID != "":
			urls = append(urls, "https://www.youtube.com/watch?v="+ent.ID)
		}
	}

	if len(urls) == 0 {
		return "", nil, fmt.Errorf("playlist detected, but no entries could be extracted")
	}

	return title, urls, nil
}

// DownloadAudio downloads the best audio stream into destDir and
// returns the downloaded file's path. When the default extraction is
// blocked it walks a ladder of alternate player clients, then retries
// the ladder with network workarounds.
func (d *Downloader) DownloadAudio(ctx context.Context, url, destDir string, allowPlaylist bool) (string, error) {
	attempts := [][]string{nil}
	attempts = append(attempts, playerClientVariants...)

	netToggles := []string{"--force-ipv4", "--geo-bypass", "--no-check-certificate"}
	for _, variant := range playerClientVariants {
		attempts = append(attempts, append(append([]string{}, netToggles...), variant...))
	}
	attempts = append(attempts, netToggles)

	var lastErr error
	for i, extra := range attempts {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if i > 0 {
			d.Logger.Debug("Download retry %d/%d", i, len(attempts)-1)
			clearDir(destDir)
		}

		path, err := d.downloadOnce(ctx, url, destDir, allowPlaylist, extra)
		if err == nil {
			return path, nil
		}
		lastErr = err
	}

	if BotwallError(lastErr) {
		vid := ExtractVideoID(url)
		return "", fmt.Errorf("download blocked for video %q (rate limit or bot check): %w", vid, lastErr)
	}
	return "", fmt.Errorf("download failed after all fallbacks: %w", lastErr)
}

func (d *Downloader) downloadOnce(ctx context.Context, url, destDir string, allowPlaylist bool, extra []string) (string, error) {
	args := append(d.commonArgs(),
		url,
		"-f", "bestaudio/best",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
	)
	if !allowPlaylist {
		args = append(args, "--no-playlist")
	}
	args = append(args, extra...)

	if _, err := d.run(ctx, args); err != nil {
		return "", err
	}

	return newestFile(destDir)
}

// run executes yt-dlp with args and returns stdout.
func (d *Downloader) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, d.YtdlpPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("cancelled")
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 500 {
			detail = detail[len(detail)-500:]
		}
		return "", fmt.Errorf("yt-dlp failed: %w\nDetails: %s", err, detail)
	}

	return stdout.String(), nil
}

// BotwallError reports whether a download failure looks like a YouTube
// bot check or rate limit rather than a broken URL.
func BotwallError(err error) bool {
	if err == nil {
		return false
	}
	m := strings.ToLower(err.Error())
	for _, needle := range []string{
		"not a bot",
		"sign in to confirm",
		"http error 403",
		"status code: 403",
		"forbidden",
		"too many requests",
		"http error 429",
		"status code: 429",
	} {
		if strings.Contains(m, needle) {
			return true
		}
	}
	return false
}

var youtubeIDRE = regexp.MustCompile(`(?:v=|youtu\.be/|/shorts/|/embed/)([\w-]{6,})`)

// ExtractVideoID pulls the video id out of a YouTube URL, or returns ""
// when none is present.
func ExtractVideoID(url string) string {
	if m := youtubeIDRE.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

func newestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read download dir: %w", err)
	}

	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("yt-dlp finished but no audio file was found")
	}
	return newest, nil
}

func clearDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}
