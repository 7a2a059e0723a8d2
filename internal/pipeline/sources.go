package pipeline

import (
	"time"

	"ytgrab/internal/audio"
	"ytgrab/internal/config"
	"ytgrab/internal/fingerprint"
	"ytgrab/internal/logger"
	"ytgrab/internal/metadata"
	"ytgrab/internal/provider/artwork"
	"ytgrab/internal/provider/itunes"
	"ytgrab/internal/provider/saavn"
	"ytgrab/internal/provider/shazam"
	"ytgrab/internal/provider/songlink"
	"ytgrab/internal/provider/spotify"
)

// BuildSources assembles the connector set from configuration. The
// catalog and artwork fetcher are always present; the rest follow the
// provider toggles, and the link resolver plus fingerprint voter only
// matter in advanced mode.
func BuildSources(cfg config.Config, tools audio.Toolchain, log *logger.Logger) metadata.Sources {
	cooldown := time.Duration(cfg.CooldownSeconds * float64(time.Second))

	src := metadata.Sources{
		Catalog: itunes.New(cooldown),
		Artwork: artwork.New(),
	}

	if cfg.EnableSaavn {
		src.Regional = saavn.New()
	}
	if cfg.EnableSpotify {
		src.Streaming = spotify.New(cfg.SpotifyID, cfg.SpotifySecret)
	}
	if cfg.Advanced {
		src.Links = songlink.New()
		if cfg.EnableShazam {
			src.Prints = fingerprint.NewVoter(tools, shazam.New(cfg.ShazamAPIKey), log)
		}
	}

	return src
}
