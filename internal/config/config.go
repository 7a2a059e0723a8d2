package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the program configuration
type Config struct {
	URL             string  `yaml:"url"`
	OutputDir       string  `yaml:"output_dir"`
	Verbose         bool    `yaml:"verbose"`
	Advanced        bool    `yaml:"advanced"`
	AutoSelect      bool    `yaml:"auto_select"`
	CooldownSeconds float64 `yaml:"cooldown_seconds"`

	EnableSpotify bool   `yaml:"enable_spotify"`
	EnableSaavn   bool   `yaml:"enable_saavn"`
	EnableShazam  bool   `yaml:"enable_shazam"`
	SpotifyID     string `yaml:"spotify_client_id"`
	SpotifySecret string `yaml:"spotify_client_secret"`
	ShazamAPIKey  string `yaml:"shazam_api_key"`

	YtdlpPath   string `yaml:"ytdlp_path"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	WebPort int `yaml:"web_port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		OutputDir:       filepath.Join(homeDir(), "Music"),
		CooldownSeconds: 0.8,
		EnableSaavn:     true,
		YtdlpPath:       "yt-dlp",
		FFmpegPath:      "ffmpeg",
		FFprobePath:     "ffprobe",
		WebPort:         8099,
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.OutputDir = ExpandHome(cfg.OutputDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./ytgrab.yaml",
		"./ytgrab.yml",
		filepath.Join(home, ".config", "ytgrab", "config.yaml"),
		filepath.Join(home, ".config", "ytgrab", "config.yml"),
		filepath.Join(home, ".ytgrab.yaml"),
		filepath.Join(home, ".ytgrab.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "ytgrab", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "ytgrab", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("URL must start with http:// or https://")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	if c.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown_seconds cannot be negative, got %.2f", c.CooldownSeconds)
	}
	if c.CooldownSeconds > 10 {
		return fmt.Errorf("cooldown_seconds above 10 makes searches unusably slow, got %.2f", c.CooldownSeconds)
	}

	if c.EnableSpotify {
		if c.SpotifyID == "" {
			return fmt.Errorf("spotify_client_id is required when enable_spotify is set")
		}
		if c.SpotifySecret == "" {
			return fmt.Errorf("spotify_client_secret is required when enable_spotify is set")
		}
	}

	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port must be a valid port number, got %d", c.WebPort)
	}

	return nil
}
