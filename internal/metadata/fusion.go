package metadata

// upgradeableFields may overwrite a non-empty base value when the incoming
// record is preferred: a structured catalog's album/year/genre/ids beat a
// free-text guess even when the guess got there first.
var upgradeableFields = map[string]bool{
	"Album": true, "Year": true, "Genre": true,
	"CatalogID": true, "ArtworkURL": true, "ISRC": true,
}

// Merge combines base with incoming field by field and returns a new
// record; neither input is mutated.
//
// Every empty base field is filled from incoming. With preferIncoming,
// the upgradeable fields additionally overwrite non-empty base values.
// Comment is never touched: it carries the original source reference and
// is set exactly once at record creation. Artwork bytes follow the
// artwork URL — they are copied only into an empty slot and dropped
// whenever the merged URL no longer names them.
func Merge(base, incoming TrackRecord, preferIncoming bool) TrackRecord {
	out := base.Clone()

	mergeField(&out.Title, incoming.Title, preferIncoming, "Title")
	mergeField(&out.Artist, incoming.Artist, preferIncoming, "Artist")
	mergeField(&out.Album, incoming.Album, preferIncoming, "Album")
	mergeField(&out.AlbumArtist, incoming.AlbumArtist, preferIncoming, "AlbumArtist")
	mergeField(&out.Year, incoming.Year, preferIncoming, "Year")
	mergeField(&out.Genre, incoming.Genre, preferIncoming, "Genre")
	mergeField(&out.TrackNumber, incoming.TrackNumber, preferIncoming, "TrackNumber")
	mergeField(&out.TrackTotal, incoming.TrackTotal, preferIncoming, "TrackTotal")
	mergeField(&out.DiscNumber, incoming.DiscNumber, preferIncoming, "DiscNumber")
	mergeField(&out.DiscTotal, incoming.DiscTotal, preferIncoming, "DiscTotal")
	mergeField(&out.ISRC, incoming.ISRC, preferIncoming, "ISRC")
	mergeField(&out.CatalogID, incoming.CatalogID, preferIncoming, "CatalogID")
	mergeField(&out.ArtworkURL, incoming.ArtworkURL, preferIncoming, "ArtworkURL")
	mergeField(&out.Kind, incoming.Kind, preferIncoming, "Kind")

	if out.ArtworkURL != base.ArtworkURL {
		out.Artwork = nil
	}
	if len(out.Artwork) == 0 && len(incoming.Artwork) > 0 &&
		(out.ArtworkURL == "" || out.ArtworkURL == incoming.ArtworkURL) {
		out.Artwork = append([]byte(nil), incoming.Artwork...)
	}

	out.Album = CleanAlbumName(out.Album)
	if out.AlbumArtist == "" {
		out.AlbumArtist = out.Artist
	}
	return out
}

func mergeField(dst *string, src string, preferIncoming bool, name string) {
	if src == "" {
		return
	}
	if *dst == "" {
		*dst = src
		return
	}
	if preferIncoming && upgradeableFields[name] {
		*dst = src
	}
}

func dedupeKey(r TrackRecord) string {
	return NormalizeTokens(r.Artist) + "|" + NormalizeTokens(r.Title) + "|" +
		NormalizeTokens(r.Album) + "|" + NormalizeTokens(r.Source)
}

// Dedupe keeps the first record per normalized (artist, title, album,
// source) key, preserving input order, capped at max (unbounded when
// max <= 0).
func Dedupe(records []TrackRecord, max int) []TrackRecord {
	seen := make(map[string]bool, len(records))
	var out []TrackRecord
	for _, r := range records {
		k := dedupeKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
