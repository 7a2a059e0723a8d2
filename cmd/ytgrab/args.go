package main

import (
	"fmt"
	"os"

	"ytgrab/internal/config"
)

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults
func parseArgs() (config.Config, string, error) {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--init-config" {
			return config.Config{}, "", initConfigFile()
		}
	}

	var configPath string
	var cfg config.Config
	var err error

	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return config.Config{}, "", fmt.Errorf("--config requires a path argument")
			}
			configPath = args[i+1]
			break
		}
	}

	cfg, err = config.LoadConfigFile(configPath)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("failed to load config: %w", err)
	}
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--advanced", "-a":
			cfg.Advanced = true

		case "--auto":
			cfg.AutoSelect = true

		case "--output", "-o":
			if i+1 >= len(args) {
				return config.Config{}, "", fmt.Errorf("--output requires a directory argument")
			}
			i++
			cfg.OutputDir = config.ExpandHome(args[i])

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return config.Config{}, "", fmt.Errorf("unknown flag: %s", arg)
			}
			cfg.URL = arg
		}
	}

	return cfg, configPath, nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  output_dir: where tagged MP3s are written")
	fmt.Println("  advanced: true/false (fingerprint + link-resolver passes)")
	fmt.Println("  auto_select: true/false (skip the review prompt)")
	fmt.Println("  cooldown_seconds: politeness delay between catalog requests")
	fmt.Println("  enable_spotify / spotify_client_id / spotify_client_secret")
	fmt.Println("  enable_saavn, enable_shazam / shazam_api_key")
	fmt.Println("  ytdlp_path, ffmpeg_path, ffprobe_path")

	os.Exit(0)
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("ytgrab - Resolve YouTube audio into tagged MP3s")
	fmt.Println()
	fmt.Println("Usage: ytgrab [options] <video_or_playlist_url>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -o, --output <dir>         Output directory (default: ~/Music)")
	fmt.Println("  -a, --advanced             Advanced metadata: fingerprinting and link resolution")
	fmt.Println("      --auto                 Skip the review prompt, keep the best candidate")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./ytgrab.yaml")
	fmt.Println("  ~/.config/ytgrab/config.yaml")
	fmt.Println("  ~/.ytgrab.yaml")
	fmt.Println()
	fmt.Println("Logging:")
	fmt.Println("  Normal mode: Progress bar shown, detailed logs saved to:")
	fmt.Println("    ~/.local/share/ytgrab/logs/")
	fmt.Println("  Verbose mode: All output to stdout, no progress bar, no file logging")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Resolve and tag a single video")
	fmt.Println("  ytgrab https://www.youtube.com/watch?v=...")
	fmt.Println()
	fmt.Println("  # Process a playlist with audio fingerprinting")
	fmt.Println("  ytgrab -a https://www.youtube.com/playlist?list=...")
	fmt.Println()
	fmt.Println("  # Unattended run, first candidate wins")
	fmt.Println("  ytgrab --auto https://www.youtube.com/watch?v=...")
	fmt.Println()
	fmt.Println("  # Create a config file to persist settings")
	fmt.Println("  ytgrab --init-config")
}
