package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ytgrab/internal/audio"
	"ytgrab/internal/config"
	"ytgrab/internal/downloader"
	"ytgrab/internal/logger"
	"ytgrab/internal/metadata"
	"ytgrab/internal/pipeline"
	"ytgrab/internal/progress"
	"ytgrab/internal/review"
	"ytgrab/internal/shutdown"
	"ytgrab/pkg/utils"
)

func main() {
	cfg, configPath, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	sh := shutdown.New()
	sh.Listen()
	defer sh.Wait()

	log := logger.New(cfg.Verbose)
	defer log.Close()

	if !cfg.Verbose {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else {
			logFile := filepath.Join(logDir, fmt.Sprintf("ytgrab_%s.log", time.Now().Format("2006-01-02_15-04-05")))
			if err := log.SetFileLog(logFile); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
			} else {
				log.Debug("Logging to file: %s", logFile)
			}
		}
	}

	if cfg.Verbose && configPath != "" {
		log.Debug("Loaded configuration from: %s", configPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	if err := run(sh, cfg, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(sh *shutdown.Handler, cfg config.Config, log *logger.Logger) error {
	log.Debug("Checking dependencies...")
	tools := map[string]string{
		"yt-dlp":  cfg.YtdlpPath,
		"ffmpeg":  cfg.FFmpegPath,
		"ffprobe": cfg.FFprobePath,
	}
	if err := utils.CheckDependencies(tools); err != nil {
		return fmt.Errorf("dependency check failed: %w", err)
	}

	toolchain := audio.New(cfg.FFmpegPath, cfg.FFprobePath)
	dl := downloader.New(cfg.YtdlpPath, log)

	// The review prompt reads stdin from its own goroutine. With
	// --auto there is no reviewer and the best candidate wins.
	var reviewer metadata.Reviewer
	if !cfg.AutoSelect {
		coord := review.NewCoordinator(nil)
		coord.SetPresenter(review.NewConsolePresenter(coord, os.Stdin, log))
		reviewer = coord
	}

	resolver := metadata.NewResolver(pipeline.BuildSources(cfg, toolchain, log), reviewer, log, cfg.Advanced)

	// The bar and the review prompt both want the terminal, so the bar
	// only runs on unattended runs.
	var bar *progress.Bar
	lastPct := 0
	if cfg.AutoSelect && !cfg.Verbose {
		bar = progress.New(100)
		log.SetProgressBar(true)
	}

	hooks := pipeline.Hooks{
		OnStage: func(pct int, msg string) {
			if bar == nil {
				return
			}
			bar.Describe(msg)
			for ; lastPct < pct && lastPct < 100; lastPct++ {
				bar.Increment()
			}
		},
	}

	p := pipeline.New(cfg, log, dl, toolchain, resolver, hooks)
	saved, err := p.Run(sh.Context(), cfg.URL)

	if bar != nil {
		bar.Finish()
		log.SetProgressBar(false)
	}

	if err != nil {
		return err
	}

	for _, path := range saved {
		log.Info("Saved: %s", path)
	}
	log.Info("=== Process completed successfully ===")
	return nil
}
