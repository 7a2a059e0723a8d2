package fingerprint

import (
	"context"
	"errors"
	"strings"

	"ytgrab/internal/logger"
	"ytgrab/internal/metadata"
)

// ErrAudioTooShort is returned when the recording is too short for a
// reliable identification. Fatal for this connector only; callers may
// still use other sources.
var ErrAudioTooShort = errors.New("fingerprint: audio too short to recognize reliably")

const (
	minDuration   = 12.0
	sliceDuration = 10.0
	endMargin     = 0.5
	earlyOffset   = 8.0
	minSpacing    = 5.0
	maxOffsets    = 3
)

// Slicer extracts a loudness-normalized sample of the recording. The
// returned bytes are the only artifact: no slice file survives the call.
type Slicer interface {
	ExtractSlice(ctx context.Context, srcPath string, startSec, durSec float64) ([]byte, error)
}

// Recognition is one fingerprint answer.
type Recognition struct {
	Title  string
	Artist string
	ISRC   string
}

// Recognizer submits one audio sample to the fingerprint service.
type Recognizer interface {
	Recognize(ctx context.Context, sample []byte) (Recognition, error)
}

// Voter drives the fingerprint service across multiple time offsets of
// the same recording and reduces the repeated identifications to one
// majority answer. Implements metadata.Identifier.
type Voter struct {
	slicer     Slicer
	recognizer Recognizer
	logger     *logger.Logger
}

// NewVoter creates a Voter.
func NewVoter(s Slicer, r Recognizer, log *logger.Logger) *Voter {
	return &Voter{slicer: s, recognizer: r, logger: log}
}

// Identify samples the recording at up to three offsets, recognizes each
// slice, and majority-votes on the normalized (title, artist) key. Ties
// break in favor of the key whose record carries a recording code. When
// no offset yields a usable answer, an empty record is returned rather
// than an error, so the overall resolution can continue.
func (v *Voter) Identify(ctx context.Context, audioPath string, duration float64) (metadata.TrackRecord, error) {
	if duration <= minDuration {
		return metadata.TrackRecord{}, ErrAudioTooShort
	}

	offsets := chooseOffsets(duration)

	votes := make(map[string]int)
	byKey := make(map[string]Recognition)
	var order []string

	for i, start := range offsets {
		v.logger.Debug("Fingerprint: slice %d/%d at %.1fs", i+1, len(offsets), start)

		sample, err := v.slicer.ExtractSlice(ctx, audioPath, start, sliceDuration)
		if err != nil {
			v.logger.Debug("Fingerprint: slice extraction failed: %v", err)
			continue
		}

		rec, err := v.recognizer.Recognize(ctx, sample)
		if err != nil {
			v.logger.Debug("Fingerprint: recognition failed: %v", err)
			continue
		}

		key := voteKey(rec)
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			byKey[key] = rec
			order = append(order, key)
		}
		votes[key]++
	}

	if len(votes) == 0 {
		return metadata.TrackRecord{}, nil
	}

	best := order[0]
	for _, key := range order[1:] {
		if votes[key] > votes[best] {
			best = key
			continue
		}
		if votes[key] == votes[best] && byKey[key].ISRC != "" && byKey[best].ISRC == "" {
			best = key
		}
	}

	win := byKey[best]
	return metadata.TrackRecord{
		Title:       win.Title,
		Artist:      win.Artist,
		AlbumArtist: win.Artist,
		ISRC:        win.ISRC,
		Source:      metadata.SourceShazam,
	}, nil
}

// chooseOffsets picks up to three slice start times: a fixed early
// offset plus 40% and 70% of the duration, each clamped so the analysis
// window fits before the end with a margin, deduplicated when closer
// than the minimum spacing.
func chooseOffsets(duration float64) []float64 {
	maxStart := duration - sliceDuration - endMargin
	if maxStart < 0 {
		maxStart = 0
	}
	clamp := func(t float64) float64 {
		if t < 0 {
			return 0
		}
		if t > maxStart {
			return maxStart
		}
		return t
	}

	candidates := []float64{
		clamp(earlyOffset),
		clamp(duration * 0.40),
		clamp(duration * 0.70),
	}

	var offsets []float64
	for _, t := range candidates {
		spaced := true
		for _, o := range offsets {
			d := t - o
			if d < 0 {
				d = -d
			}
			if d <= minSpacing {
				spaced = false
				break
			}
		}
		if spaced {
			offsets = append(offsets, t)
		}
		if len(offsets) == maxOffsets {
			break
		}
	}
	return offsets
}

func voteKey(rec Recognition) string {
	key := metadata.NormalizeTokens(rec.Title) + " — " + metadata.NormalizeTokens(rec.Artist)
	return strings.Trim(key, " —")
}
