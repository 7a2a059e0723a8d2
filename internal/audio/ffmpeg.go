package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Toolchain wraps the ffmpeg/ffprobe binaries. Paths are injected from
// configuration; empty values resolve through PATH. No package-level
// state: every caller owns its Toolchain value.
type Toolchain struct {
	FFmpeg  string
	FFprobe string
}

// New creates a Toolchain, defaulting to PATH lookups.
func New(ffmpegPath, ffprobePath string) Toolchain {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return Toolchain{FFmpeg: ffmpegPath, FFprobe: ffprobePath}
}

// Duration probes the duration of an audio file in seconds.
func (t Toolchain) Duration(ctx context.Context, path string) (float64, error) {
	out, err := runCmd(ctx, t.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q for %s: %w", strings.TrimSpace(out), path, err)
	}
	return dur, nil
}

// ToWAV decodes any input into a 44.1kHz stereo PCM WAV for analysis.
func (t Toolchain) ToWAV(ctx context.Context, src, dst string) error {
	_, err := runCmd(ctx, t.FFmpeg,
		"-y",
		"-i", src,
		"-vn",
		"-ac", "2",
		"-ar", "44100",
		"-c:a", "pcm_s16le",
		dst,
	)
	if err != nil {
		return fmt.Errorf("wav conversion failed for %s: %w", src, err)
	}
	return nil
}

// ExtractSlice cuts a loudness-normalized sample from the recording and
// returns its bytes. The intermediate slice file is removed before
// returning, so nothing persists past the recognition attempt.
func (t Toolchain) ExtractSlice(ctx context.Context, srcPath string, startSec, durSec float64) ([]byte, error) {
	tmp, err := os.CreateTemp("", "ytgrab-slice-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create slice file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	_, err = runCmd(ctx, t.FFmpeg,
		"-y",
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-t", fmt.Sprintf("%.3f", durSec),
		"-i", srcPath,
		"-af", "loudnorm=I=-16:TP=-1.5:LRA=11",
		"-ac", "2",
		"-ar", "44100",
		tmpPath,
	)
	if err != nil {
		return nil, fmt.Errorf("slice extraction failed at %.3fs: %w", startSec, err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read slice: %w", err)
	}
	return data, nil
}

// EncodeMP3 encodes a WAV into a broadly compatible MP3: libmp3lame at
// 128k with an ID3v2.3 container.
func (t Toolchain) EncodeMP3(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	_, err := runCmd(ctx, t.FFmpeg,
		"-y",
		"-i", src,
		"-vn",
		"-ac", "2",
		"-ar", "44100",
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-write_id3v2", "1",
		"-id3v2_version", "3",
		dst,
	)
	if err != nil {
		return fmt.Errorf("mp3 encoding failed for %s: %w", src, err)
	}
	return nil
}

func runCmd(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w (%s)", name, err, tail(stderr.String(), 500))
	}
	return stdout.String(), nil
}

func tail(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
