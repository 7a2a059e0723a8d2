package metadata

import (
	"context"
	"strings"
)

// Provenance tags identifying which connector produced a record.
const (
	SourceTitleParse = "TitleParse"
	SourceITunes     = "iTunes"
	SourceSongLink   = "SongLink"
	SourceShazam     = "Shazam"
	SourceSpotify    = "Spotify"
	SourceSaavn      = "JioSaavn"
	SourceCurrent    = "Current"
)

// KindSong marks catalog entries that the source identifies as a song
// (as opposed to a music video, audiobook chapter, etc.).
const KindSong = "song"

// TrackRecord is the canonical metadata record moved through the whole
// pipeline. Numeric fields are kept as strings, matching what the tag
// frames ultimately carry; empty string means "unknown".
//
// Records are values: every merge step produces a new record owned by its
// caller, so earlier versions are never mutated under a concurrent reader.
type TrackRecord struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        string // 4-digit year or empty
	Genre       string
	TrackNumber string
	TrackTotal  string
	DiscNumber  string
	DiscTotal   string
	ISRC        string
	CatalogID   string // numeric track identifier in the source catalog
	ArtworkURL  string
	Artwork     []byte // raw image bytes for ArtworkURL, lazily fetched
	Comment     string // original source URL; set once at creation, never merged over
	Kind        string // source-reported entry kind, e.g. "song"
	Source      string // provenance tag, always set before a record leaves a connector
}

// Clone returns a deep copy of the record.
func (r TrackRecord) Clone() TrackRecord {
	out := r
	if len(r.Artwork) > 0 {
		out.Artwork = append([]byte(nil), r.Artwork...)
	}
	return out
}

// Empty reports whether the record carries no identifying information.
func (r TrackRecord) Empty() bool {
	return r.Title == "" && r.Artist == "" && r.ISRC == "" && r.CatalogID == ""
}

// Label renders the record as a short human-readable line for review lists.
func (r TrackRecord) Label() string {
	base := strings.Trim(strings.TrimSpace(r.Artist)+" — "+strings.TrimSpace(r.Title), " —")
	if base == "" {
		base = "Unknown"
	}
	src := strings.TrimSpace(r.Source)
	if src == "" {
		src = "Unknown"
	}
	return base + " (" + src + ")"
}

// Catalog is the general music catalog connector: free-text search plus
// identifier lookup. Implementations return canonical records only.
type Catalog interface {
	Name() string
	Search(ctx context.Context, term string, limit int) ([]TrackRecord, error)
	Lookup(ctx context.Context, id string) (TrackRecord, error)
}

// Searcher is a search-only catalog connector (streaming or regional).
type Searcher interface {
	Name() string
	Search(ctx context.Context, term string) ([]TrackRecord, error)
}

// LinkResolver maps a source URL to a best-effort catalog identifier.
type LinkResolver interface {
	Resolve(ctx context.Context, sourceURL string) (string, error)
}

// Identifier recognizes a decoded audio asset and returns one record.
type Identifier interface {
	Identify(ctx context.Context, audioPath string, duration float64) (TrackRecord, error)
}

// ArtworkFetcher retrieves artwork bytes for a URL.
type ArtworkFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Reviewer hands a deduplicated candidate set to a human and blocks until
// a choice is made. Implementations must eventually answer every request.
type Reviewer interface {
	Ask(rawTitle, parsedTitle string, candidates []TrackRecord) (int, error)
}
