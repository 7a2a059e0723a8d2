package metadata

import (
	"regexp"
	"strings"
)

// Marketing noise stripped from raw video titles. Phrases are matched as
// substrings inside bracketed segments and as whole trailing phrases.
var marketingPhrases = []string{
	"official",
	"lyrics",
	"audio",
	"video",
	"music video",
	"visualizer",
	"free download",
	"4k",
	"4k remaster",
	"4k remastered",
}

// Terms that mark a segment as a real part of the title. Preservation
// always wins over the marketing vocabulary.
var preserveTerms = []string{
	"remix",
	"mix",
	"edit",
	"bootleg",
	"rework",
	"remaster",
	"remastered",
}

// Connector words ignored when deciding whether a separator-delimited
// segment is entirely marketing.
var connectorWords = map[string]bool{
	"and": true, "with": true, "feat": true, "featuring": true,
	"ft": true, "vs": true, "x": true,
}

var (
	albumSuffixRE = regexp.MustCompile(`(?i)\s*[-–—]\s*(single|ep|album)\s*$`)
	segmentWordRE = regexp.MustCompile(`[a-z0-9']+`)
	trailingSepRE = regexp.MustCompile(`[\s\-\|•]+$`)
	whitespaceRE  = regexp.MustCompile(`\s+`)
	titleSplitRE  = regexp.MustCompile(`\s[-–—]\s`)
	bracketedRE   = regexp.MustCompile(`^\[(.+)\]$`)
)

// marketingPhrasesByLength holds marketingPhrases longest-first so that
// "4k remastered" is stripped before "4k".
var marketingPhrasesByLength = func() []string {
	out := append([]string(nil), marketingPhrases...)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if len(out[j]) > len(out[i]) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}()

// marketingTokens is the set of individual words appearing in marketingPhrases.
var marketingTokens = func() map[string]bool {
	set := make(map[string]bool)
	for _, phrase := range marketingPhrases {
		for _, tok := range strings.Fields(phrase) {
			set[tok] = true
		}
	}
	return set
}()

// CleanAlbumName strips a trailing "- Single/EP/Album" marketing suffix.
func CleanAlbumName(name string) string {
	return strings.TrimSpace(albumSuffixRE.ReplaceAllString(name, ""))
}

func containsPreserveTerm(s string) bool {
	for _, w := range preserveTerms {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsMarketingPhrase(s string) bool {
	for _, w := range marketingPhrases {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// segmentIsMarketing reports whether a separator-delimited segment consists
// entirely of marketing words, ignoring generic connector words. A segment
// containing a preserve term is never marketing.
func segmentIsMarketing(seg string) bool {
	lower := strings.ToLower(seg)
	if containsPreserveTerm(lower) {
		return false
	}
	var meaningful []string
	for _, tok := range segmentWordRE.FindAllString(lower, -1) {
		if !connectorWords[tok] {
			meaningful = append(meaningful, tok)
		}
	}
	if len(meaningful) == 0 {
		return false
	}
	for _, tok := range meaningful {
		if !marketingTokens[tok] {
			return false
		}
	}
	return true
}

// atPhraseBoundary reports whether a trailing phrase starting right after
// prefix sits at a token boundary, so "Audio" is never carved out of a
// real word.
func atPhraseBoundary(prefix string) bool {
	if prefix == "" {
		return true
	}
	if strings.ContainsAny(prefix[len(prefix)-1:], " []()-|") {
		return true
	}
	return strings.HasSuffix(prefix, "•")
}

// StripMarketing removes trailing marketing noise from a raw title:
// bracketed segments, separator-delimited segments, and bare trailing
// phrases, each under the marketing-vs-preserve test. Idempotent.
func StripMarketing(title string) string {
	s := strings.TrimSpace(title)
	if s == "" {
		return s
	}

	// Trailing "(Official Video)" / "[4K]" style segments.
	for strings.HasSuffix(s, ")") || strings.HasSuffix(s, "]") {
		open := "("
		if strings.HasSuffix(s, "]") {
			open = "["
		}
		openIdx := strings.LastIndex(s, open)
		if openIdx == -1 {
			break
		}
		inside := strings.ToLower(strings.TrimSpace(s[openIdx+1 : len(s)-1]))
		if containsPreserveTerm(inside) {
			break
		}
		if containsMarketingPhrase(inside) {
			s = strings.TrimRight(s[:openIdx], " ")
			continue
		}
		break
	}

	// Trailing "… - Lyrics" / "… | Official Video" segments. Byte
	// offsets must come from s itself: case folding can change rune
	// widths, so indexes into a lowercased copy drift.
	for _, sep := range []string{" - ", " | ", " • "} {
		idx := strings.LastIndex(s, sep)
		if idx == -1 {
			continue
		}
		right := strings.TrimSpace(s[idx+len(sep):])
		if segmentIsMarketing(right) {
			s = strings.TrimRight(s[:idx], " ")
			break
		}
	}

	// Bare trailing marketing phrases, anchored at token boundaries.
	for {
		trimmed := false
		for _, phrase := range marketingPhrasesByLength {
			idx := len(s) - len(phrase)
			if idx < 0 || !strings.EqualFold(s[idx:], phrase) {
				continue
			}
			if atPhraseBoundary(s[:idx]) {
				s = strings.TrimRight(s[:idx], " ")
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}

	return strings.TrimSpace(trailingSepRE.ReplaceAllString(s, ""))
}

// ParseTitle splits a raw video title into an (artist, title) pair after
// stripping marketing noise. A title without a dash separator yields an
// empty artist; a single layer of surrounding brackets or quotes around
// the title portion is unwrapped.
func ParseTitle(raw string) (artist, title string) {
	if raw == "" {
		return "", ""
	}
	s := strings.TrimSpace(whitespaceRE.ReplaceAllString(StripMarketing(raw), " "))
	if s == "" {
		return "", ""
	}

	parts := titleSplitRE.Split(s, 2)
	if len(parts) == 2 {
		artist = strings.Trim(parts[0], " -–—")
		title = strings.TrimSpace(parts[1])
	} else {
		title = s
	}

	if m := bracketedRE.FindStringSubmatch(title); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if len(title) >= 2 {
		if (strings.HasPrefix(title, `"`) && strings.HasSuffix(title, `"`)) ||
			(strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'")) {
			title = strings.TrimSpace(title[1 : len(title)-1])
		}
	}

	return artist, strings.TrimSpace(title)
}
