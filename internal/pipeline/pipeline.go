package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ytgrab/internal/audio"
	"ytgrab/internal/config"
	"ytgrab/internal/downloader"
	"ytgrab/internal/logger"
	"ytgrab/internal/metadata"
	"ytgrab/pkg/utils"
)

// Hooks receive progress and per-track results during a run.
type Hooks struct {
	OnStage   func(pct int, msg string)
	OnTrack   func(index, total int, path string, rec metadata.TrackRecord)
	OnWarning func(msg string)
}

// Pipeline drives the full flow for one URL: fetch title, download,
// decode, resolve metadata (including the blocking review), encode and
// save. Playlist URLs are processed sequentially, one track at a time,
// so only one review can ever be outstanding.
type Pipeline struct {
	cfg      config.Config
	log      *logger.Logger
	dl       *downloader.Downloader
	tools    audio.Toolchain
	resolver *metadata.Resolver
	hooks    Hooks
}

// New creates a Pipeline.
func New(cfg config.Config, log *logger.Logger, dl *downloader.Downloader, tools audio.Toolchain, resolver *metadata.Resolver, hooks Hooks) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		log:      log,
		dl:       dl,
		tools:    tools,
		resolver: resolver,
		hooks:    hooks,
	}
}

// Run processes url and returns the saved file paths. Playlist URLs are
// detected by their list parameter.
func (p *Pipeline) Run(ctx context.Context, url string) ([]string, error) {
	if IsPlaylistURL(url) {
		return p.runPlaylist(ctx, url)
	}

	path, _, err := p.processTrack(ctx, url, p.cfg.OutputDir, 0, 0, p.stage)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// IsPlaylistURL reports whether url addresses a playlist rather than a
// single video.
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, "list=") || strings.Contains(url, "/playlist")
}

func (p *Pipeline) stage(pct int, msg string) {
	p.log.Info("[%3d%%] %s", pct, msg)
	if p.hooks.OnStage != nil {
		p.hooks.OnStage(pct, msg)
	}
}

func (p *Pipeline) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.log.Warn("%s", msg)
	if p.hooks.OnWarning != nil {
		p.hooks.OnWarning(msg)
	}
}

func (p *Pipeline) runPlaylist(ctx context.Context, url string) ([]string, error) {
	p.stage(2, "Reading playlist…")
	title, entries, err := p.dl.ListPlaylist(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	folderName := utils.SanitizeFilename(title)
	if folderName == "" || folderName == "audio" {
		folderName = "Playlist"
	}
	folder := filepath.Join(p.cfg.OutputDir, folderName)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create playlist folder: %w", err)
	}

	// A generic folder name gets renamed to the album of the first
	// resolved track once one is known.
	folderGeneric := strings.EqualFold(strings.TrimSpace(folderName), "playlist")

	total := len(entries)
	var saved []string

	for i, entry := range entries {
		if ctx.Err() != nil {
			return saved, ctx.Err()
		}

		idx := i + 1
		mapper := func(pct int, msg string) {
			overall := ((idx-1)*100 + pct) / total
			p.stage(overall, fmt.Sprintf("Track %d/%d: %s", idx, total, msg))
		}

		path, rec, err := p.processTrack(ctx, entry, folder, idx, total, mapper)
		if err != nil {
			p.warn("Track %d/%d failed: %v", idx, total, err)
			continue
		}
		saved = append(saved, path)

		if p.hooks.OnTrack != nil {
			p.hooks.OnTrack(idx, total, path, rec)
		}

		if folderGeneric && idx == 1 {
			if renamed, ok := p.renameToAlbum(folder, rec.Album); ok {
				folder = renamed
				for j := range saved {
					saved[j] = filepath.Join(folder, filepath.Base(saved[j]))
				}
			}
			folderGeneric = false
		}
	}

	if len(saved) == 0 {
		return nil, fmt.Errorf("no tracks could be processed")
	}

	p.stage(100, "Done.")
	return saved, nil
}

// renameToAlbum moves a generically named playlist folder to one named
// after the album, returning the new path.
func (p *Pipeline) renameToAlbum(folder, album string) (string, bool) {
	alb := utils.SanitizeFilename(album)
	if alb == "" || alb == "audio" || strings.EqualFold(alb, "playlist") {
		return folder, false
	}

	desired := filepath.Join(filepath.Dir(folder), alb)
	if desired == folder {
		return folder, false
	}

	moved, failed, err := utils.MoveAudioFiles(folder, desired, nil)
	if err != nil || failed > 0 || moved == 0 {
		p.log.Debug("Album folder rename skipped (%d moved, %d failed): %v", moved, failed, err)
		return folder, false
	}
	os.Remove(folder)

	p.log.Info("Playlist folder renamed to %s", alb)
	return desired, true
}

// destDirFor picks the save directory for a tagged file. Standalone
// tracks are filed under an Artist/Album subdirectory read back from
// the tags; playlist tracks stay in the playlist folder.
func (p *Pipeline) destDirFor(outDir, taggedPath string, total int) string {
	if total > 0 {
		return outDir
	}
	if sub := metadata.SubDirFromTags(taggedPath); sub != "" {
		return filepath.Join(outDir, sub)
	}
	return outDir
}

// processTrack runs the single-track flow and returns the saved path.
// index/total are zero for standalone videos.
func (p *Pipeline) processTrack(ctx context.Context, url, outDir string, index, total int, stage func(int, string)) (string, metadata.TrackRecord, error) {
	work, err := utils.CreateTempDir()
	if err != nil {
		return "", metadata.TrackRecord{}, err
	}
	defer func() {
		if err := utils.Cleanup(work); err != nil {
			p.log.Debug("Cleanup failed: %v", err)
		}
	}()

	dlDir := filepath.Join(work, "dl")
	if err := os.MkdirAll(dlDir, 0755); err != nil {
		return "", metadata.TrackRecord{}, fmt.Errorf("failed to create work dir: %w", err)
	}

	stage(8, "Fetching title…")
	rawTitle, uploader, err := p.dl.TitleAndUploader(ctx, url, false)
	if err != nil {
		return "", metadata.TrackRecord{}, err
	}
	p.log.Debug("Raw title: %q (uploader %q)", rawTitle, uploader)

	stage(25, "Downloading audio…")
	downloaded, err := p.dl.DownloadAudio(ctx, url, dlDir, false)
	if err != nil {
		return "", metadata.TrackRecord{}, err
	}

	stage(45, "Converting to WAV…")
	wavPath := filepath.Join(work, "audio.wav")
	if err := p.tools.ToWAV(ctx, downloaded, wavPath); err != nil {
		return "", metadata.TrackRecord{}, err
	}

	duration, err := p.tools.Duration(ctx, wavPath)
	if err != nil {
		p.log.Debug("Duration probe failed: %v", err)
	}

	in := metadata.ResolveInput{
		RawTitle:  rawTitle,
		Uploader:  uploader,
		SourceURL: url,
		AudioPath: wavPath,
		Duration:  duration,
	}
	if total > 0 && index > 0 {
		in.TrackNumber = strconv.Itoa(index)
		in.TrackTotal = strconv.Itoa(total)
	}

	stage(60, "Metadata: fetching sources…")
	final := p.resolver.Resolve(ctx, in)
	stage(78, "Metadata: applying selection…")

	stage(82, "Encoding MP3…")
	mp3Tmp := filepath.Join(work, "final.mp3")
	if err := p.tools.EncodeMP3(ctx, wavPath, mp3Tmp); err != nil {
		return "", metadata.TrackRecord{}, err
	}

	stage(92, "Saving…")
	trackPrefix := ""
	if total > 0 && index > 0 {
		width := len(strconv.Itoa(total))
		if width < 2 {
			width = 2
		}
		trackPrefix = fmt.Sprintf("%0*d", width, index)
	}

	tagged := true
	if err := metadata.WriteTags(mp3Tmp, final); err != nil {
		p.warn("Failed to write tags: %v", err)
		tagged = false
	}

	destDir := outDir
	if tagged {
		destDir = p.destDirFor(outDir, mp3Tmp, total)
	}

	baseName := metadata.DisplayFilename(final, trackPrefix)
	destPath, err := utils.UniquePath(destDir, baseName)
	if err != nil {
		return "", metadata.TrackRecord{}, err
	}

	if err := utils.MoveFile(mp3Tmp, destPath); err != nil {
		return "", metadata.TrackRecord{}, fmt.Errorf("failed to save %s: %w", destPath, err)
	}

	stage(100, "Done.")
	p.log.Info("Saved: %s", destPath)
	return destPath, final, nil
}
