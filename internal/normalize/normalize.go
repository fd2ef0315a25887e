// Package normalize canonicalizes free-text queries and track titles.
//
// Every component that compares strings goes through this package; if two
// components normalized differently, the same track could resolve to
// different cache entries, so this is the single normalization authority.
package normalize

import (
	"regexp"
	"strings"
)

// Platform suffixes appended to video titles. Only stripped when anchored at
// the end of the string, so "Lyrics of Love" stays intact while
// "Love (Lyrics) [Official Video]" loses both trailers.
var suffixRe = regexp.MustCompile(`(?i)\s*[(\[](?:official\s+(?:music\s+)?video|official\s+audio|lyric\s+video|lyrics?|audio|visuali[sz]er|official)[)\]]\s*$`)

var (
	featParenRe = regexp.MustCompile(`(?i)\s*[(\[]\s*(?:feat\.?|ft\.?|featuring)\s+([^)\]]+)[)\]]`)
	featTrailRe = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring)\s+(\S.*)$`)
	punctRe     = regexp.MustCompile(`[^\w\s]`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Options control featured-artist handling during normalization.
type Options struct {
	// DropFeatured removes featured-artist clauses entirely instead of
	// rewriting them to a canonical "feat <names>" trailer.
	DropFeatured bool
}

// Normalize canonicalizes s with default options. It is deterministic, pure
// and total, and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return WithOptions(s, Options{})
}

// WithOptions canonicalizes s: lowercase, platform suffixes stripped,
// featured-artist clauses canonicalized (or dropped), punctuation removed,
// whitespace collapsed.
func WithOptions(s string, opts Options) string {
	s = strings.ToLower(s)

	// Suffixes can stack; keep stripping while one remains at the end.
	for {
		stripped := suffixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	var featured []string
	s = featParenRe.ReplaceAllStringFunc(s, func(m string) string {
		if sub := featParenRe.FindStringSubmatch(m); sub != nil {
			featured = append(featured, strings.TrimSpace(sub[1]))
		}
		return " "
	})
	if m := featTrailRe.FindStringSubmatch(s); m != nil {
		featured = append(featured, strings.TrimSpace(m[1]))
		s = featTrailRe.ReplaceAllString(s, "")
	}
	if !opts.DropFeatured && len(featured) > 0 {
		s += " feat " + strings.Join(featured, " ")
	}

	s = punctRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// QueryKey derives the cache-lookup key for a raw user query. Two raw
// queries that normalize identically share a cache entry.
func QueryKey(raw string) string {
	return Normalize(raw)
}
