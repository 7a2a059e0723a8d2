package metadata

import (
	"context"
	"strings"

	"ytgrab/internal/logger"
)

const (
	maxReviewCandidates = 10
	extraCandidateLimit = 6
)

// Sources bundles the external connectors the resolver consults. Any
// field may be nil; a missing connector simply contributes nothing.
type Sources struct {
	Catalog   Catalog        // general music catalog (search + lookup)
	Links     LinkResolver   // cross-platform link resolver
	Prints    Identifier     // audio fingerprint voter
	Streaming Searcher       // streaming catalog
	Regional  Searcher       // regional catalog
	Artwork   ArtworkFetcher // artwork download
}

// ResolveInput describes one source reference to resolve.
type ResolveInput struct {
	RawTitle    string
	Uploader    string // fallback artist when the title has no separator
	SourceURL   string
	AudioPath   string  // decoded WAV for fingerprinting; empty disables it
	Duration    float64 // seconds
	TrackNumber string
	TrackTotal  string
}

// sourceSet holds the per-connector answers for one record, in the fixed
// order later connectors and the candidate list consume them.
type sourceSet struct {
	titleParse TrackRecord
	songLink   *TrackRecord
	prints     *TrackRecord
	catalog    *TrackRecord
	streaming  *TrackRecord
	regional   *TrackRecord
}

func (s *sourceSet) ordered() []TrackRecord {
	var out []TrackRecord
	for _, p := range []*TrackRecord{s.catalog, s.prints, s.streaming, s.regional, s.songLink} {
		if p != nil && (p.Title != "" || p.Artist != "" || p.CatalogID != "") {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *sourceSet) all() []TrackRecord {
	out := []TrackRecord{s.titleParse.Clone()}
	for _, p := range []*TrackRecord{s.songLink, s.prints, s.catalog, s.streaming, s.regional} {
		if p != nil {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Resolver turns a raw title plus queryable identifiers into one
// canonical record: it queries each connector in a fixed sequence,
// fuses their answers into a current best, assembles a deduplicated
// candidate list, hands it to the reviewer, and enriches the choice.
//
// All connector calls run synchronously on the calling goroutine; the
// single suspension point is the reviewer handoff.
type Resolver struct {
	sources  Sources
	reviewer Reviewer
	logger   *logger.Logger
	advanced bool
}

// NewResolver creates a Resolver. A nil reviewer auto-selects the first
// candidate. Advanced mode adds the link-resolver and fingerprint passes.
func NewResolver(sources Sources, reviewer Reviewer, log *logger.Logger, advanced bool) *Resolver {
	return &Resolver{
		sources:  sources,
		reviewer: reviewer,
		logger:   log,
		advanced: advanced,
	}
}

// Resolve runs the full resolution flow for one source reference.
// Connector failures are swallowed: the worst outcome is a record
// carrying only the parsed title. The returned record is always usable,
// never an error, matching the best-effort contract of every connector.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) TrackRecord {
	parsedArtist, parsedTitle := ParseTitle(in.RawTitle)
	if parsedArtist == "" {
		parsedArtist = strings.TrimSpace(in.Uploader)
	}

	base := TrackRecord{
		Title:       firstNonEmpty(parsedTitle, strings.TrimSpace(in.RawTitle)),
		Artist:      parsedArtist,
		AlbumArtist: parsedArtist,
		Comment:     in.SourceURL,
		TrackNumber: in.TrackNumber,
		TrackTotal:  in.TrackTotal,
		Source:      SourceTitleParse,
	}
	r.logger.Debug("Parsed title: artist=%q title=%q", base.Artist, base.Title)

	sources := r.gatherSources(ctx, in, base)
	current := r.currentBest(base, sources)

	wantArtist := firstNonEmpty(parsedArtist, current.Artist)
	wantTitle := firstNonEmpty(parsedTitle, current.Title)
	extras := r.extraCatalogCandidates(ctx, wantArtist, wantTitle, base.Comment)

	candidates := r.buildCandidates(ctx, base, current, sources, extras)

	parsed := strings.Trim(base.Artist+" — "+base.Title, " —")

	idx := 0
	if r.reviewer != nil {
		chosen, err := r.reviewer.Ask(in.RawTitle, parsed, candidates)
		if err != nil {
			r.logger.Warn("Review failed, keeping first candidate: %v", err)
		} else {
			idx = chosen
		}
	}
	if idx < 0 || idx >= len(candidates) {
		idx = 0
	}
	chosen := candidates[idx].Clone()
	chosen.Comment = base.Comment

	others := make([]TrackRecord, 0, len(candidates)+5)
	for i, c := range candidates {
		if i != idx {
			others = append(others, c)
		}
	}
	others = append(others, sources.all()...)

	final := r.enrichAfterChoice(ctx, chosen, others)
	if in.TrackNumber != "" {
		final.TrackNumber = in.TrackNumber
		final.TrackTotal = in.TrackTotal
	}
	return final
}

// gatherSources queries every configured connector once, in a fixed
// deterministic order so that later connectors can consult earlier
// results (a fingerprint recording code sharpens the catalog search).
func (r *Resolver) gatherSources(ctx context.Context, in ResolveInput, base TrackRecord) sourceSet {
	set := sourceSet{titleParse: base.Clone()}

	if r.advanced && r.sources.Links != nil && in.SourceURL != "" {
		if id, err := r.sources.Links.Resolve(ctx, in.SourceURL); err != nil {
			r.logger.Debug("Link resolver failed: %v", err)
		} else if id != "" {
			rec := base.Clone()
			rec.CatalogID = id
			rec.Source = SourceSongLink
			set.songLink = &rec
		}
	}

	if r.advanced && r.sources.Prints != nil && in.AudioPath != "" {
		if rec, err := r.sources.Prints.Identify(ctx, in.AudioPath, in.Duration); err != nil {
			r.logger.Debug("Fingerprint identification failed: %v", err)
		} else if rec.Title != "" || rec.Artist != "" || rec.ISRC != "" {
			rec.Comment = base.Comment
			rec.Source = SourceShazam
			set.prints = &rec
		}
	}

	catBase := base.Clone()
	if set.prints != nil && set.prints.ISRC != "" {
		catBase.ISRC = set.prints.ISRC
	}
	if set.songLink != nil && set.songLink.CatalogID != "" {
		catBase.CatalogID = set.songLink.CatalogID
	}
	catBest := r.quickCatalogEnrich(ctx, catBase)
	if catBest.Title != "" || catBest.Artist != "" {
		catBest.Comment = base.Comment
		catBest.Source = SourceITunes
		set.catalog = &catBest
	}

	wantArtist := firstNonEmpty(catBest.Artist, base.Artist)
	wantTitle := firstNonEmpty(catBest.Title, base.Title)
	term := strings.TrimSpace(wantArtist + " " + wantTitle)

	if r.sources.Streaming != nil && term != "" {
		if results, err := r.sources.Streaming.Search(ctx, term); err != nil {
			r.logger.Debug("Streaming search failed: %v", err)
		} else if best, ok := PickBest(results, wantArtist, wantTitle); ok {
			best.Comment = base.Comment
			best.Source = SourceSpotify
			set.streaming = &best
		}
	}

	if r.sources.Regional != nil && term != "" {
		if results, err := r.sources.Regional.Search(ctx, term); err != nil {
			r.logger.Debug("Regional search failed: %v", err)
		} else if len(results) > 0 {
			rec := results[0].Clone()
			rec.Comment = base.Comment
			rec.Source = SourceSaavn
			set.regional = &rec
		}
	}

	return set
}

// currentBest fuses the per-source answers into one suggestion. The
// structured catalog and the fingerprint result may upgrade fields the
// title parse guessed; everything else only fills gaps.
func (r *Resolver) currentBest(base TrackRecord, set sourceSet) TrackRecord {
	cur := base.Clone()
	if set.songLink != nil {
		cur = Merge(cur, *set.songLink, false)
	}
	if set.prints != nil {
		cur = Merge(cur, *set.prints, true)
	}
	if set.catalog != nil {
		cur = Merge(cur, *set.catalog, true)
	}
	if set.streaming != nil {
		cur = Merge(cur, *set.streaming, false)
	}
	if set.regional != nil {
		cur = Merge(cur, *set.regional, false)
	}
	cur.Album = CleanAlbumName(cur.Album)
	if cur.AlbumArtist == "" {
		cur.AlbumArtist = cur.Artist
	}
	return cur
}

// quickCatalogEnrich anchors a record to the general catalog: an ISRC
// query first, then the best-scored hit for the top search variant, then
// a lookup by catalog id to complete the album fields.
func (r *Resolver) quickCatalogEnrich(ctx context.Context, base TrackRecord) TrackRecord {
	meta := base.Clone()
	if r.sources.Catalog == nil {
		return meta
	}

	var chosen *TrackRecord
	if meta.ISRC != "" {
		if results, err := r.sources.Catalog.Search(ctx, "isrc:"+meta.ISRC, 8); err != nil {
			r.logger.Debug("Catalog ISRC search failed: %v", err)
		} else if len(results) > 0 {
			rec := results[0]
			chosen = &rec
		}
	}
	if chosen == nil && meta.Artist != "" && meta.Title != "" {
		if terms := SearchVariants(meta.Artist, meta.Title); len(terms) > 0 {
			if results, err := r.sources.Catalog.Search(ctx, terms[0], 10); err != nil {
				r.logger.Debug("Catalog search failed: %v", err)
			} else if len(results) > 0 {
				rec := results[0]
				if best, ok := PickBest(results, meta.Artist, meta.Title); ok {
					rec = best
				}
				chosen = &rec
			}
		}
	}

	if chosen != nil {
		meta = Merge(meta, *chosen, true)
		if meta.CatalogID != "" {
			if rec, err := r.sources.Catalog.Lookup(ctx, meta.CatalogID); err != nil {
				r.logger.Debug("Catalog lookup failed: %v", err)
			} else if !rec.Empty() {
				meta = Merge(meta, rec, true)
			}
		}
		meta = r.ensureArtwork(ctx, meta)
	}

	meta.Album = CleanAlbumName(meta.Album)
	if meta.AlbumArtist == "" {
		meta.AlbumArtist = meta.Artist
	}
	if meta.Source == "" {
		meta.Source = SourceITunes
	}
	return meta
}

// extraCatalogCandidates collects additional catalog hits keyed to what
// the user actually saw, so the review list offers alternatives beyond
// each connector's single best answer.
func (r *Resolver) extraCatalogCandidates(ctx context.Context, artist, title, comment string) []TrackRecord {
	if r.sources.Catalog == nil {
		return nil
	}
	var out []TrackRecord
	terms := SearchVariants(artist, title)
	if len(terms) > 2 {
		terms = terms[:2]
	}
	for _, term := range terms {
		results, err := r.sources.Catalog.Search(ctx, term, extraCandidateLimit)
		if err != nil {
			r.logger.Debug("Extra catalog search failed: %v", err)
			continue
		}
		for _, rec := range results {
			if rec.Title == "" || rec.Artist == "" {
				continue
			}
			if title != "" && Similarity(title, rec.Title) < 0.18 {
				continue
			}
			rec.Comment = comment
			rec.Source = SourceITunes
			out = append(out, rec)
		}
		if len(out) >= extraCandidateLimit {
			break
		}
	}
	out = Dedupe(out, extraCandidateLimit)
	return out
}

// buildCandidates assembles the review list: current best first, then
// the bare title parse, each per-source answer, and the extra catalog
// hits, deduplicated and capped, with artwork prefetched for preview.
func (r *Resolver) buildCandidates(ctx context.Context, base, current TrackRecord, set sourceSet, extras []TrackRecord) []TrackRecord {
	cur := current.Clone()
	if cur.Source == "" {
		cur.Source = SourceCurrent
	}

	merged := []TrackRecord{cur, set.titleParse.Clone()}
	merged = append(merged, set.ordered()...)
	merged = append(merged, extras...)

	out := Dedupe(merged, maxReviewCandidates)
	for i := range out {
		out[i] = r.ensureArtwork(ctx, out[i])
	}
	return out
}

// enrichAfterChoice anchors to the record the human picked and fills its
// gaps from the catalog, the other connectors, and the remaining
// candidates. All merges here only fill empties: enrichment must never
// silently override a deliberate selection. Candidate records are merged
// only when they plausibly describe the same track.
func (r *Resolver) enrichAfterChoice(ctx context.Context, chosen TrackRecord, others []TrackRecord) TrackRecord {
	anchor := chosen.Clone()

	cat := r.quickCatalogEnrich(ctx, anchor)
	cat.Comment = anchor.Comment
	anchor = Merge(anchor, cat, false)

	term := strings.TrimSpace(anchor.Artist + " " + anchor.Title)
	if r.sources.Streaming != nil && term != "" {
		if results, err := r.sources.Streaming.Search(ctx, term); err != nil {
			r.logger.Debug("Streaming search failed: %v", err)
		} else if best, ok := PickBest(results, anchor.Artist, anchor.Title); ok {
			anchor = Merge(anchor, best, false)
		}
	}
	if r.sources.Regional != nil && term != "" {
		if results, err := r.sources.Regional.Search(ctx, term); err != nil {
			r.logger.Debug("Regional search failed: %v", err)
		} else if len(results) > 0 {
			anchor = Merge(anchor, results[0], false)
		}
	}

	for _, rec := range others {
		if rec.Empty() {
			continue
		}
		if Matches(anchor, rec) {
			anchor = Merge(anchor, rec, false)
		}
	}

	anchor = r.ensureArtwork(ctx, anchor)
	anchor.Album = CleanAlbumName(anchor.Album)
	if anchor.AlbumArtist == "" {
		anchor.AlbumArtist = anchor.Artist
	}
	return anchor
}

// ensureArtwork fetches artwork bytes for the record's URL when missing.
func (r *Resolver) ensureArtwork(ctx context.Context, rec TrackRecord) TrackRecord {
	if len(rec.Artwork) > 0 || rec.ArtworkURL == "" || r.sources.Artwork == nil {
		return rec
	}
	data, err := r.sources.Artwork.Get(ctx, rec.ArtworkURL)
	if err != nil {
		r.logger.Debug("Artwork download failed: %v", err)
		return rec
	}
	rec.Artwork = data
	return rec
}
