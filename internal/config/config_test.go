package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			URL:             "https://youtu.be/abc",
			OutputDir:       "/tmp/music",
			CooldownSeconds: 0.8,
			EnableSpotify:   true,
			SpotifyID:       "id",
			SpotifySecret:   "secret",
			WebPort:         8099,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty URL",
			modify:  func(c *Config) { c.URL = "" },
			wantErr: true,
		},
		{
			name:    "URL without scheme",
			modify:  func(c *Config) { c.URL = "youtu.be/abc" },
			wantErr: true,
		},
		{
			name:   "http URL",
			modify: func(c *Config) { c.URL = "http://youtu.be/abc" },
		},
		{
			name:    "empty output dir",
			modify:  func(c *Config) { c.OutputDir = "" },
			wantErr: true,
		},
		{
			name:    "negative cooldown",
			modify:  func(c *Config) { c.CooldownSeconds = -0.1 },
			wantErr: true,
		},
		{
			name:   "zero cooldown",
			modify: func(c *Config) { c.CooldownSeconds = 0 },
		},
		{
			name:    "absurd cooldown",
			modify:  func(c *Config) { c.CooldownSeconds = 11 },
			wantErr: true,
		},
		{
			name: "missing spotify id with spotify enabled",
			modify: func(c *Config) {
				c.SpotifyID = ""
			},
			wantErr: true,
		},
		{
			name: "missing spotify secret with spotify enabled",
			modify: func(c *Config) {
				c.SpotifySecret = ""
			},
			wantErr: true,
		},
		{
			name: "no spotify creds needed when disabled",
			modify: func(c *Config) {
				c.EnableSpotify = false
				c.SpotifyID = ""
				c.SpotifySecret = ""
			},
		},
		{
			name:    "invalid web port",
			modify:  func(c *Config) { c.WebPort = 70000 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `output_dir: /tmp/test-music
advanced: true
cooldown_seconds: 1.5
enable_spotify: true
spotify_client_id: id
web_port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.OutputDir != "/tmp/test-music" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if !cfg.Advanced {
		t.Error("Advanced = false, want true")
	}
	if cfg.CooldownSeconds != 1.5 {
		t.Errorf("CooldownSeconds = %f, want 1.5", cfg.CooldownSeconds)
	}
	if !cfg.EnableSpotify || cfg.SpotifyID != "id" {
		t.Errorf("spotify settings = %v/%q", cfg.EnableSpotify, cfg.SpotifyID)
	}
	if cfg.WebPort != 9000 {
		t.Errorf("WebPort = %d, want 9000", cfg.WebPort)
	}
	// Unset fields keep their defaults
	if cfg.YtdlpPath != "yt-dlp" {
		t.Errorf("YtdlpPath = %q, want default", cfg.YtdlpPath)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.CooldownSeconds != 0.8 {
		t.Errorf("expected default CooldownSeconds=0.8, got %f", cfg.CooldownSeconds)
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
