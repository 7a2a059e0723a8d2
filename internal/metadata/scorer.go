package metadata

import (
	"regexp"
	"strings"
)

var tokenPunctRE = regexp.MustCompile(`[\(\)\[\]\{\}\-–—_:;,.!/?\\|]+`)

// NormalizeTokens lowercases s, replaces a fixed punctuation class with
// spaces and collapses whitespace.
func NormalizeTokens(s string) string {
	s = strings.ToLower(s)
	s = tokenPunctRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(NormalizeTokens(s)) {
		set[tok] = true
	}
	return set
}

// Similarity is the token Jaccard index of two strings: 1.0 when both are
// empty, 0.0 when exactly one is.
func Similarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range ta {
		if tb[tok] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// ScoreCandidate rates how well a candidate record answers a wanted
// (artist, title) pair. Substring hits score higher than anything else,
// exact equality adds on top, and a low title similarity is penalized
// hard so an unrelated top search hit cannot win on artist alone.
func ScoreCandidate(c TrackRecord, wantArtist, wantTitle string) int {
	wa := NormalizeTokens(wantArtist)
	wt := NormalizeTokens(wantTitle)
	a := NormalizeTokens(c.Artist)
	t := NormalizeTokens(c.Title)

	score := 0
	if wt != "" && strings.Contains(t, wt) {
		score += 6
	}
	if wa != "" && strings.Contains(a, wa) {
		score += 6
	}
	if wt != "" && t == wt {
		score += 3
	}
	if wa != "" && a == wa {
		score += 3
	}
	if c.Kind == KindSong {
		score++
	}
	if strings.Contains(t, "karaoke") {
		score -= 2
	}

	if wt != "" {
		switch sim := Similarity(wantTitle, c.Title); {
		case sim < 0.20:
			score -= 8
		case sim < 0.35:
			score -= 3
		}
	}
	return score
}

// PickBest returns the highest-scoring candidate; ties keep the
// first-seen record. ok is false for an empty slice.
func PickBest(candidates []TrackRecord, wantArtist, wantTitle string) (best TrackRecord, ok bool) {
	bestScore := -999
	for _, c := range candidates {
		if s := ScoreCandidate(c, wantArtist, wantTitle); s > bestScore {
			bestScore = s
			best = c
			ok = true
		}
	}
	return best, ok
}

// Matches reports whether two records describe the same underlying track.
// A shared recording code or catalog id is conclusive; otherwise both
// title and artist similarity must clear their thresholds. A missing
// artist on either side passes the artist test by default, since absent
// data should not itself reject a match.
func Matches(a, b TrackRecord) bool {
	ai := strings.ToUpper(strings.TrimSpace(a.ISRC))
	bi := strings.ToUpper(strings.TrimSpace(b.ISRC))
	if ai != "" && ai == bi {
		return true
	}
	if a.CatalogID != "" && a.CatalogID == b.CatalogID {
		return true
	}

	titleSim := Similarity(a.Title, b.Title)
	artistSim := 0.6
	if a.Artist != "" && b.Artist != "" {
		artistSim = Similarity(a.Artist, b.Artist)
	}
	return titleSim >= 0.62 && artistSim >= 0.55
}
