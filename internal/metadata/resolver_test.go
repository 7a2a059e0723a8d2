package metadata

import (
	"context"
	"strings"
	"testing"

	"ytgrab/internal/logger"
)

type fakeCatalog struct {
	hit      TrackRecord
	empty    bool
	searches []string
	lookups  int
}

func (f *fakeCatalog) Name() string { return "fake-catalog" }

func (f *fakeCatalog) Search(_ context.Context, term string, _ int) ([]TrackRecord, error) {
	f.searches = append(f.searches, term)
	if f.empty {
		return nil, nil
	}
	return []TrackRecord{f.hit.Clone()}, nil
}

func (f *fakeCatalog) Lookup(_ context.Context, id string) (TrackRecord, error) {
	f.lookups++
	if f.empty || id != f.hit.CatalogID {
		return TrackRecord{}, nil
	}
	return f.hit.Clone(), nil
}

// pickBySource selects the first candidate carrying the wanted provenance.
type pickBySource struct {
	source     string
	askedRaw   string
	candidates []TrackRecord
}

func (p *pickBySource) Ask(rawTitle, _ string, candidates []TrackRecord) (int, error) {
	p.askedRaw = rawTitle
	p.candidates = candidates
	for i, c := range candidates {
		if c.Source == p.source {
			return i, nil
		}
	}
	return 0, nil
}

func TestResolveEndToEnd(t *testing.T) {
	catalog := &fakeCatalog{hit: TrackRecord{
		Title:     "Track Title",
		Artist:    "Artist Name",
		Album:     "Great Album - Single",
		Year:      "2019",
		Genre:     "Pop",
		ISRC:      "USUG11904206",
		CatalogID: "1488408568",
		Kind:      KindSong,
		Source:    SourceITunes,
	}}
	reviewer := &pickBySource{source: SourceITunes}

	r := NewResolver(Sources{Catalog: catalog}, reviewer, logger.New(false), false)
	got := r.Resolve(context.Background(), ResolveInput{
		RawTitle:  "Artist Name - Track Title (Official Lyric Video) [4K]",
		SourceURL: "https://www.youtube.com/watch?v=abc123",
	})

	if got.Title != "Track Title" || got.Artist != "Artist Name" {
		t.Errorf("title/artist = %q / %q, want catalog hit's", got.Title, got.Artist)
	}
	if got.Album != "Great Album" {
		t.Errorf("album = %q, want marketing suffix stripped", got.Album)
	}
	if got.ISRC != "USUG11904206" {
		t.Errorf("ISRC = %q, want catalog hit's", got.ISRC)
	}
	if got.Source != SourceITunes {
		t.Errorf("provenance = %q, want %q", got.Source, SourceITunes)
	}
	if got.Comment != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("comment = %q, want source URL preserved", got.Comment)
	}

	if reviewer.askedRaw != "Artist Name - Track Title (Official Lyric Video) [4K]" {
		t.Errorf("reviewer saw raw title %q", reviewer.askedRaw)
	}
	if len(reviewer.candidates) == 0 || len(reviewer.candidates) > 10 {
		t.Fatalf("candidate list size = %d, want 1..10", len(reviewer.candidates))
	}
	if reviewer.candidates[0].Source == "" {
		t.Error("first candidate must carry provenance")
	}
	for _, term := range catalog.searches {
		if strings.TrimSpace(term) == "" {
			t.Error("catalog searched with an empty term")
		}
	}
}

func TestResolveAllConnectorsEmpty(t *testing.T) {
	catalog := &fakeCatalog{empty: true}
	r := NewResolver(Sources{Catalog: catalog}, nil, logger.New(false), false)

	got := r.Resolve(context.Background(), ResolveInput{
		RawTitle:  "Some Artist - Some Song",
		SourceURL: "https://www.youtube.com/watch?v=xyz",
	})

	if got.Title != "Some Song" || got.Artist != "Some Artist" {
		t.Errorf("empty connectors should fall back to the parsed title, got %q / %q", got.Title, got.Artist)
	}
	if got.Source != SourceTitleParse {
		t.Errorf("provenance = %q, want %q", got.Source, SourceTitleParse)
	}
}

func TestResolveUploaderFallback(t *testing.T) {
	r := NewResolver(Sources{Catalog: &fakeCatalog{empty: true}}, nil, logger.New(false), false)

	got := r.Resolve(context.Background(), ResolveInput{
		RawTitle: "Some Song (Official Audio)",
		Uploader: "Some Channel",
	})

	if got.Artist != "Some Channel" {
		t.Errorf("artist = %q, want uploader fallback", got.Artist)
	}
	if got.Title != "Some Song" {
		t.Errorf("title = %q, want marketing stripped", got.Title)
	}
}

func TestResolveTrackNumbersSurvive(t *testing.T) {
	catalog := &fakeCatalog{hit: TrackRecord{
		Title: "Track Title", Artist: "Artist Name",
		TrackNumber: "7", TrackTotal: "14", Source: SourceITunes,
	}}
	r := NewResolver(Sources{Catalog: catalog}, nil, logger.New(false), false)

	got := r.Resolve(context.Background(), ResolveInput{
		RawTitle:    "Artist Name - Track Title",
		TrackNumber: "3",
		TrackTotal:  "12",
	})

	if got.TrackNumber != "3" || got.TrackTotal != "12" {
		t.Errorf("playlist numbering %q/%q should beat catalog numbering", got.TrackNumber, got.TrackTotal)
	}
}
