package metadata

import (
	"regexp"
	"strings"
)

var (
	softParenRE = regexp.MustCompile(`\s*[\(\[].*?[\)\]]\s*`)
	featTailRE  = regexp.MustCompile(`(?i)\s*\(?(feat\.|featuring|ft\.)\s+.+?\)?\s*$`)
)

// softParenKeepTerms guard parenthetical content that changes which track
// is meant; such strings are left untouched by StripParensSoft.
var softParenKeepTerms = []string{
	"remix", "edit", "bootleg", "rework", "mix", "cover", "remaster", "remastered",
}

// StripParensSoft removes parenthetical/bracketed chunks unless the string
// mentions a version-defining term (remix, edit, …).
func StripParensSoft(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	for _, w := range softParenKeepTerms {
		if strings.Contains(lower, w) {
			return s
		}
	}
	out := softParenRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(out, " "))
}

// DropFeatTail removes a trailing "feat./featuring/ft. …" clause.
func DropFeatTail(s string) string {
	return strings.TrimSpace(featTailRE.ReplaceAllString(s, ""))
}

// SearchVariants produces up to four alternate search phrasings for an
// (artist, title) pair, most specific first: the plain pair both ways,
// then the soft-paren-stripped pair, then the feat-tail-dropped pair.
// Variants are deduplicated case-insensitively; order sets search priority.
func SearchVariants(artist, title string) []string {
	a := strings.TrimSpace(artist)
	t := strings.TrimSpace(title)

	var variants []string
	if a != "" && t != "" {
		variants = append(variants, a+" "+t, t+" "+a)
	}

	a2 := StripParensSoft(a)
	t2 := StripParensSoft(t)
	if a2 != "" && t2 != "" && (a2 != a || t2 != t) {
		variants = append(variants, a2+" "+t2, t2+" "+a2)
	}

	a3 := DropFeatTail(firstNonEmpty(a2, a))
	t3 := DropFeatTail(firstNonEmpty(t2, t))
	if a3 != "" && t3 != "" && (a3 != a || t3 != t) {
		variants = append(variants, a3+" "+t3, t3+" "+a3)
	}

	seen := make(map[string]bool, len(variants))
	var out []string
	for _, v := range variants {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
