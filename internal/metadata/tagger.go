package metadata

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bogem/id3v2"
	"go.senan.xyz/taglib"
)

var yearPrefixRE = regexp.MustCompile(`^\d{4}`)

// WriteTags serializes the record into ID3v2.3 frames on an MP3 file,
// UTF-16 encoded for maximum player compatibility. Track and disc
// numbers are written as "n/total" when a total is known; the source
// reference lands in a COMM frame described "Source" plus TXXX mirrors
// of the artist/ISRC fields.
func WriteTags(path string, rec TrackRecord) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer tag.Close()

	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingUTF16)
	enc := id3v2.EncodingUTF16

	if rec.Title != "" {
		tag.SetTitle(rec.Title)
	}
	if rec.Artist != "" {
		tag.SetArtist(rec.Artist)
	}
	if rec.AlbumArtist != "" {
		tag.AddTextFrame(tag.CommonID("Band/Orchestra/Accompaniment"), enc, rec.AlbumArtist)
	}
	if rec.Album != "" {
		tag.SetAlbum(rec.Album)
	}
	if tn := numberOfTotal(rec.TrackNumber, rec.TrackTotal); tn != "" {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), enc, tn)
	}
	if dn := numberOfTotal(rec.DiscNumber, rec.DiscTotal); dn != "" {
		tag.AddTextFrame(tag.CommonID("Part of a set"), enc, dn)
	}
	if rec.Genre != "" {
		tag.SetGenre(rec.Genre)
	}
	if y := yearPrefixRE.FindString(strings.TrimSpace(rec.Year)); y != "" {
		tag.SetYear(y)
	}
	if rec.ISRC != "" {
		tag.AddTextFrame(tag.CommonID("ISRC"), enc, rec.ISRC)
	}

	if rec.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    enc,
			Language:    "eng",
			Description: "Source",
			Text:        rec.Comment,
		})
	}

	setUserText(tag, enc, "ARTISTS", rec.Artist)
	setUserText(tag, enc, "ALBUMARTIST", rec.AlbumArtist)
	if rec.ISRC != "" {
		setUserText(tag, enc, "ISRC", rec.ISRC)
		setUserText(tag, enc, "TSRC", rec.ISRC)
	}

	if len(rec.Artwork) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    enc,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     rec.Artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags to %s: %w", path, err)
	}
	return nil
}

func setUserText(tag *id3v2.Tag, enc id3v2.Encoding, desc, value string) {
	if value == "" {
		return
	}
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    enc,
		Description: desc,
		Value:       value,
	})
}

func numberOfTotal(number, total string) string {
	n := strings.TrimSpace(number)
	if n == "" {
		return ""
	}
	t := strings.TrimSpace(total)
	if t != "" && !strings.Contains(n, "/") {
		return n + "/" + t
	}
	return n
}

// DisplayFilename builds an "Artist - Title" destination name for the
// record, with an optional zero-padded playlist prefix.
func DisplayFilename(rec TrackRecord, trackPrefix string) string {
	a := strings.TrimSpace(rec.Artist)
	t := strings.TrimSpace(rec.Title)
	core := strings.Trim(a+" - "+t, " -")
	if core == "" {
		core = firstNonEmpty(t, firstNonEmpty(a, "audio"))
	}
	if trackPrefix != "" {
		return strings.TrimSpace(trackPrefix + " " + core)
	}
	return core
}

// SubDirFromTags reads a tagged file back and returns an "Artist/Album"
// subdirectory for organizing output. Returns "" if tags can't be read.
func SubDirFromTags(path string) string {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return ""
	}

	artist := firstTag(tags, taglib.AlbumArtist)
	if artist == "" {
		artist = firstTag(tags, taglib.Artist)
		if i := strings.Index(artist, ","); i > 0 {
			artist = strings.TrimSpace(artist[:i])
		}
	}
	album := firstTag(tags, taglib.Album)

	if artist == "" {
		artist = "Unknown Artist"
	}
	if album == "" {
		album = "Unknown Album"
	}

	return filepath.Join(sanitizePath(artist), sanitizePath(album))
}

func sanitizePath(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(s)
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
